// Package cos provides small low-level helpers shared across the driver:
// log trace tags and defaulting helpers, mirroring aistore's cmn/cos in
// miniature.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/teris-io/shortid"
)

// alphabet for generated tags, same shape as aistore's cmn/cos.uuidABC
const tagABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

var sid *shortid.Shortid

func init() {
	sid = shortid.MustNew(1, tagABC, uint64(time.Now().UnixNano()))
}

// GenTie returns a short opaque tag for tying together log lines that
// belong to the same session or callback worker, drawn from tagABC by
// shortid.
func GenTie() string {
	s, err := sid.Generate()
	if err != nil {
		return "untagged"
	}
	return s
}

// ShardKey hashes a normalized function signature name into a shard index
// for the session's function registry, spreading lookups across
// numShards buckets the way cos.HashK8sProxyID shards node IDs.
func ShardKey(normalizedName string, numShards int) int {
	h := xxhash.ChecksumString64(normalizedName)
	return int(h % uint64(numShards))
}

// NonZero returns v if non-zero, otherwise def — the same tiny defaulting
// helper aistore calls cos.NonZero.
func NonZero[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
