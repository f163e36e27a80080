package embproto

import (
	"github.com/sass-contrib/embedded-host-go/internal/errs"
	"github.com/sass-contrib/embedded-host-go/sassvalue"
)

// Value wire layout (field numbers are this driver's own schema choice,
// made the way the out-of-scope code-generation collaborator would have
// made them — the core never needs them to match any particular released
// schema, only to round-trip).
const (
	fValKind = 1 // varint, one of valueKind*

	fValText   = 2 // string
	fValQuoted = 3 // bool

	fValNumber = 4 // double
	fValUnits  = 5 // repeated string

	fValColorSpace = 6 // string: "rgb" | "hsl"
	fValColorC1    = 7 // double: R
	fValColorC2    = 8 // double: G
	fValColorC3    = 9 // double: B
	fValColorAlpha = 10
	fValColorH     = 25 // double: hue, own field so a zero hue round-trips
	fValColorS     = 26 // double: saturation
	fValColorL     = 27 // double: lightness

	fValBool = 11 // bool

	fValListItems     = 12 // repeated nested Value
	fValListSeparator = 13 // string
	fValListBrackets  = 14 // bool

	fValMapKeys   = 15 // repeated nested Value
	fValMapValues = 16 // repeated nested Value

	fValArgItems     = 17 // repeated nested Value
	fValArgKeywords  = 18 // repeated nested KeywordEntry
	fValArgSeparator = 19 // string

	fValFuncName    = 20 // string
	fValFuncID      = 21 // varint
	fValFuncHasID   = 22 // bool

	fValCalcName = 23 // string
	fValCalcArgs = 24 // repeated nested CalculationArg
)

const (
	valueKindString = iota + 1
	valueKindNumber
	valueKindColor
	valueKindBool
	valueKindNull
	valueKindList
	valueKindMap
	valueKindArgList
	valueKindFunctionRef
	valueKindCalculation
)

// MarshalValue encodes a host value into its wire form.
func MarshalValue(v sassvalue.Value) []byte {
	var w builder
	switch val := v.(type) {
	case sassvalue.String:
		w.forceVarint(fValKind, valueKindString)
		w.str(fValText, val.Text)
		w.boolean(fValQuoted, val.Quoted)
	case sassvalue.Number:
		w.forceVarint(fValKind, valueKindNumber)
		w.double(fValNumber, val.Value)
		for _, u := range val.Units {
			w.str(fValUnits, u)
		}
	case sassvalue.Color:
		w.forceVarint(fValKind, valueKindColor)
		w.str(fValColorSpace, val.Space)
		if val.Space == "hsl" {
			w.double(fValColorH, val.H)
			w.double(fValColorS, val.S)
			w.double(fValColorL, val.L)
		} else {
			w.double(fValColorC1, val.R)
			w.double(fValColorC2, val.G)
			w.double(fValColorC3, val.B)
		}
		w.double(fValColorAlpha, val.Alpha)
	case sassvalue.Bool:
		w.forceVarint(fValKind, valueKindBool)
		w.boolean(fValBool, val.Value)
	case sassvalue.Null:
		w.forceVarint(fValKind, valueKindNull)
	case sassvalue.List:
		w.forceVarint(fValKind, valueKindList)
		for _, item := range val.Items {
			w.msg(fValListItems, MarshalValue(item))
		}
		w.str(fValListSeparator, val.Separator)
		w.boolean(fValListBrackets, val.Brackets)
	case sassvalue.Map:
		w.forceVarint(fValKind, valueKindMap)
		for _, k := range val.Keys {
			w.msg(fValMapKeys, MarshalValue(k))
		}
		for _, mv := range val.Values {
			w.msg(fValMapValues, MarshalValue(mv))
		}
	case sassvalue.ArgList:
		w.forceVarint(fValKind, valueKindArgList)
		for _, item := range val.Items {
			w.msg(fValArgItems, MarshalValue(item))
		}
		for k, kv := range val.Keywords {
			w.msg(fValArgKeywords, marshalKeywordEntry(k, kv))
		}
		w.str(fValArgSeparator, val.Separator)
	case sassvalue.FunctionRef:
		w.forceVarint(fValKind, valueKindFunctionRef)
		w.str(fValFuncName, val.Name)
		if val.ID != nil {
			w.boolean(fValFuncHasID, true)
			w.forceVarint(fValFuncID, uint64(*val.ID))
		}
	case sassvalue.Calculation:
		w.forceVarint(fValKind, valueKindCalculation)
		w.str(fValCalcName, val.Name)
		for _, a := range val.Arguments {
			w.msg(fValCalcArgs, marshalCalcArg(a))
		}
	}
	return w.bytesOut()
}

// UnmarshalValue decodes a wire value into its host representation.
func UnmarshalValue(b []byte) (sassvalue.Value, error) {
	f, err := parseFields(b)
	if err != nil {
		return nil, err
	}
	switch getUint64(f, fValKind) {
	case valueKindString:
		return sassvalue.String{Text: getString(f, fValText), Quoted: getBool(f, fValQuoted)}, nil
	case valueKindNumber:
		var units []string
		for _, u := range getRepeatedBytes(f, fValUnits) {
			units = append(units, string(u))
		}
		return sassvalue.Number{Value: getDouble(f, fValNumber), Units: units}, nil
	case valueKindColor:
		space := getString(f, fValColorSpace)
		c := sassvalue.Color{
			Space: space,
			Alpha: getDouble(f, fValColorAlpha),
		}
		if space == "hsl" {
			c.H, c.S, c.L = getDouble(f, fValColorH), getDouble(f, fValColorS), getDouble(f, fValColorL)
		} else {
			c.R, c.G, c.B = getDouble(f, fValColorC1), getDouble(f, fValColorC2), getDouble(f, fValColorC3)
		}
		return c, nil
	case valueKindBool:
		return sassvalue.Bool{Value: getBool(f, fValBool)}, nil
	case valueKindNull:
		return sassvalue.Null{}, nil
	case valueKindList:
		items, err := unmarshalValueList(getRepeatedBytes(f, fValListItems))
		if err != nil {
			return nil, err
		}
		return sassvalue.List{
			Items:     items,
			Separator: getString(f, fValListSeparator),
			Brackets:  getBool(f, fValListBrackets),
		}, nil
	case valueKindMap:
		keys, err := unmarshalValueList(getRepeatedBytes(f, fValMapKeys))
		if err != nil {
			return nil, err
		}
		vals, err := unmarshalValueList(getRepeatedBytes(f, fValMapValues))
		if err != nil {
			return nil, err
		}
		if len(keys) != len(vals) {
			return nil, errs.NewProtocolError("embproto: map key/value count mismatch (%d vs %d)", len(keys), len(vals))
		}
		return sassvalue.Map{Keys: keys, Values: vals}, nil
	case valueKindArgList:
		items, err := unmarshalValueList(getRepeatedBytes(f, fValArgItems))
		if err != nil {
			return nil, err
		}
		kw := make(map[string]sassvalue.Value)
		for _, raw := range getRepeatedBytes(f, fValArgKeywords) {
			k, v, err := unmarshalKeywordEntry(raw)
			if err != nil {
				return nil, err
			}
			kw[k] = v
		}
		return sassvalue.ArgList{Items: items, Keywords: kw, Separator: getString(f, fValArgSeparator)}, nil
	case valueKindFunctionRef:
		ref := sassvalue.FunctionRef{Name: getString(f, fValFuncName)}
		if getBool(f, fValFuncHasID) {
			id := getUint32(f, fValFuncID)
			ref.ID = &id
		}
		return ref, nil
	case valueKindCalculation:
		var args []sassvalue.CalculationArg
		for _, raw := range getRepeatedBytes(f, fValCalcArgs) {
			a, err := unmarshalCalcArg(raw)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return sassvalue.Calculation{Name: getString(f, fValCalcName), Arguments: args}, nil
	default:
		return nil, errs.NewProtocolError("embproto: unknown value kind")
	}
}

func unmarshalValueList(raw [][]byte) ([]sassvalue.Value, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]sassvalue.Value, len(raw))
	for i, r := range raw {
		v, err := UnmarshalValue(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

const (
	fKwKey   = 1
	fKwValue = 2
)

func marshalKeywordEntry(key string, v sassvalue.Value) []byte {
	var w builder
	w.str(fKwKey, key)
	w.msg(fKwValue, MarshalValue(v))
	return w.bytesOut()
}

func unmarshalKeywordEntry(b []byte) (string, sassvalue.Value, error) {
	f, err := parseFields(b)
	if err != nil {
		return "", nil, err
	}
	v, err := UnmarshalValue(getBytes(f, fKwValue))
	if err != nil {
		return "", nil, err
	}
	return getString(f, fKwKey), v, nil
}

const (
	fCalcArgValue         = 1
	fCalcArgCalculation   = 2
	fCalcArgOperator      = 3
	fCalcArgInterpolation = 4
)

func marshalCalcArg(a sassvalue.CalculationArg) []byte {
	var w builder
	if a.Value != nil {
		w.msg(fCalcArgValue, MarshalValue(a.Value))
	}
	if a.Calculation != nil {
		w.msg(fCalcArgCalculation, MarshalValue(*a.Calculation))
	}
	w.str(fCalcArgOperator, a.Operator)
	w.str(fCalcArgInterpolation, a.Interpolation)
	return w.bytesOut()
}

func unmarshalCalcArg(b []byte) (sassvalue.CalculationArg, error) {
	f, err := parseFields(b)
	if err != nil {
		return sassvalue.CalculationArg{}, err
	}
	var a sassvalue.CalculationArg
	if hasField(f, fCalcArgValue) {
		v, err := UnmarshalValue(getBytes(f, fCalcArgValue))
		if err != nil {
			return a, err
		}
		a.Value = v
	}
	if hasField(f, fCalcArgCalculation) {
		v, err := UnmarshalValue(getBytes(f, fCalcArgCalculation))
		if err != nil {
			return a, err
		}
		if calc, ok := v.(sassvalue.Calculation); ok {
			a.Calculation = &calc
		}
	}
	a.Operator = getString(f, fCalcArgOperator)
	a.Interpolation = getString(f, fCalcArgInterpolation)
	return a, nil
}
