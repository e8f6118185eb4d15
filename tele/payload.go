package tele

import (
	structpb "github.com/golang/protobuf/ptypes/struct"
)

// Wire payloads are google.protobuf.Struct, readable by any protobuf consumer.
const (
	KindError      = "error"
	KindPeripheral = "peripheral"
	KindReport     = "report"
	KindState      = "state"
)

func String(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func Number(f float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: f}}
}

func Object(fields map[string]*structpb.Value) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: &structpb.Struct{Fields: fields}}}
}

func (s UIState) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"kind":  String(KindState),
		"mode":  String(s.Mode),
		"index": Number(float64(s.Index)),
		"page":  String(s.Page),
	}}
}

// Caller must hold self.Mutex.
func (self *Stat) Locked_Struct() *structpb.Value {
	return Object(map[string]*structpb.Value{
		"commands":           Number(float64(self.Commands)),
		"peripheral_sent":    Number(float64(self.PeripheralSent)),
		"peripheral_dropped": Number(float64(self.PeripheralDropped)),
		"commit_full":        Number(float64(self.CommitFull)),
		"commit_partial":     Number(float64(self.CommitPartial)),
		"commit_error":       Number(float64(self.CommitError)),
	})
}

// Field returns string or number field as interface{}, nil if absent.
func Field(st *structpb.Struct, key string) interface{} {
	if st == nil {
		return nil
	}
	v, ok := st.Fields[key]
	if !ok || v == nil {
		return nil
	}
	switch k := v.Kind.(type) {
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_NumberValue:
		return k.NumberValue
	case *structpb.Value_BoolValue:
		return k.BoolValue
	case *structpb.Value_StructValue:
		return k.StructValue
	}
	return nil
}
