package session

import (
	"strings"

	"github.com/sass-contrib/embedded-host-go/internal/cos"
	"github.com/sass-contrib/embedded-host-go/internal/errs"
)

// Signature is a registered custom function's parsed "name(params)" form.
// Parsing the raw string once at registration (rather than re-parsing on
// every call) keeps call-time dispatch to a single map lookup and makes a
// malformed signature an eager registration error.
type Signature struct {
	Raw           string // original spelling, kept for error messages
	CanonicalName string // dash-normalized name, used as the lookup key
	Params        []string
	RestParam     string // non-empty if the last param is "$name..."
}

// NormalizeName maps '_' and '-' to the same character so "foo-bar" and
// "foo_bar" collide in the registry, per the driver's dash-normalization
// rule. Case is left untouched: signatures are case-sensitive.
func NormalizeName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// ParseSignature parses "name(params)" into a Signature, rejecting malformed
// input eagerly (leading/trailing whitespace, space before '(', embedded
// '$' in the name) rather than at call time.
func ParseSignature(raw string) (*Signature, error) {
	if raw != strings.TrimSpace(raw) {
		return nil, errs.NewHostError("invalid function signature %q: leading or trailing whitespace", raw)
	}
	open := strings.IndexByte(raw, '(')
	if open < 0 || !strings.HasSuffix(raw, ")") {
		return nil, errs.NewHostError("invalid function signature %q: expected name(params)", raw)
	}
	name := raw[:open]
	if name == "" {
		return nil, errs.NewHostError("invalid function signature %q: empty name", raw)
	}
	if strings.ContainsAny(name, "$ \t\n") {
		return nil, errs.NewHostError("invalid function signature %q: invalid name", raw)
	}
	paramStr := raw[open+1 : len(raw)-1]

	sig := &Signature{Raw: raw, CanonicalName: NormalizeName(name)}
	if strings.TrimSpace(paramStr) == "" {
		return sig, nil
	}
	for _, p := range strings.Split(paramStr, ",") {
		p = strings.TrimSpace(p)
		if strings.HasSuffix(p, "...") {
			sig.RestParam = strings.TrimSuffix(p, "...")
			continue
		}
		sig.Params = append(sig.Params, p)
	}
	return sig, nil
}

// signatureRegistry is a sharded map from canonical function name to
// Signature + callback, sharded by cos.ShardKey the way aistore shards its
// stream-bundle maps. It has no lock: it is filled before any callback runs
// and only read afterwards.
type signatureRegistry struct {
	shards []map[string]registeredFunction
	n      int
}

type registeredFunction struct {
	sig *Signature
	fn  Function
}

func newSignatureRegistry(n int) *signatureRegistry {
	if n < 1 {
		n = 1
	}
	r := &signatureRegistry{shards: make([]map[string]registeredFunction, n), n: n}
	for i := range r.shards {
		r.shards[i] = make(map[string]registeredFunction)
	}
	return r
}

func (r *signatureRegistry) register(raw string, fn Function) error {
	sig, err := ParseSignature(raw)
	if err != nil {
		return err
	}
	shard := r.shardFor(sig.CanonicalName)
	if _, dup := shard[sig.CanonicalName]; dup {
		return errs.NewHostError("duplicate function registration for %q", sig.CanonicalName)
	}
	shard[sig.CanonicalName] = registeredFunction{sig: sig, fn: fn}
	return nil
}

func (r *signatureRegistry) lookup(name string) (Function, bool) {
	shard := r.shardFor(NormalizeName(name))
	rf, ok := shard[NormalizeName(name)]
	if !ok {
		return nil, false
	}
	return rf.fn, true
}

func (r *signatureRegistry) shardFor(canonicalName string) map[string]registeredFunction {
	return r.shards[cos.ShardKey(canonicalName, r.n)]
}
