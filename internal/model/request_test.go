package model

import (
	"context"
	"reflect"
	"testing"
)

type recordingHandler struct {
	calls []string
}

func (h *recordingHandler) HandleStock(_ context.Context, name string) error {
	h.calls = append(h.calls, "stock:"+name)
	return nil
}

func (h *recordingHandler) HandleNew(_ context.Context, name string) error {
	h.calls = append(h.calls, "new:"+name)
	return nil
}

func (h *recordingHandler) HandleReturn(_ context.Context, name string) error {
	h.calls = append(h.calls, "return:"+name)
	return nil
}

func TestParseRequestType(t *testing.T) {
	cases := []struct {
		label string
		want  RequestType
		ok    bool
	}{
		{"Stock Accessory", RequestStock, true},
		{"New Accessory", RequestNew, true},
		{"Return Accessory", RequestReturn, true},
		{"(DO NOT USE) Return Accessory", RequestReturn, true},
		{" Stock Accessory ", RequestStock, true},
		{"Bogus", 0, false},
		{"", 0, false},
		{"stock accessory", 0, false},
	}

	for _, tc := range cases {
		got, ok := ParseRequestType(tc.label)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseRequestType(%q) = (%v, %v)，期望 (%v, %v)", tc.label, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRequestType_Dispatch(t *testing.T) {
	h := &recordingHandler{}
	ctx := context.Background()

	_ = RequestStock.Dispatch(ctx, h, "A")
	_ = RequestNew.Dispatch(ctx, h, "B")
	_ = RequestReturn.Dispatch(ctx, h, "C")

	want := []string{"stock:A", "new:B", "return:C"}
	if !reflect.DeepEqual(h.calls, want) {
		t.Errorf("分派结果=%v，期望=%v", h.calls, want)
	}
}

func TestRequestPayload_AccessoryNames(t *testing.T) {
	p := &RequestPayload{AccessoryFields: map[string]string{
		"customfield_11720": "Headset, Mouse",
		"customfield_11726": " ,Trackball,, ",
		"customfield_99999": "Ignored",
	}}

	got := p.AccessoryNames([]string{"customfield_11720", "customfield_11724", "customfield_11726"})
	want := []string{"Headset", "Mouse", "Trackball"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AccessoryNames=%v，期望=%v", got, want)
	}
}

func TestRequestPayload_AccessoryNames_KeepsDuplicates(t *testing.T) {
	p := &RequestPayload{AccessoryFields: map[string]string{"f": "Mouse, Mouse"}}

	got := p.AccessoryNames([]string{"f"})
	if len(got) != 2 {
		t.Errorf("重复名称应分别保留，实际=%v", got)
	}
}

func TestAccessory_Sustainable(t *testing.T) {
	a := &Accessory{Name: "Widget"}
	if a.IsSustainable() {
		t.Error("Widget 不应为环保版本")
	}
	if a.SustainableName() != "Widget (Sustainable)" {
		t.Errorf("SustainableName=%q", a.SustainableName())
	}

	s := &Accessory{Name: a.SustainableName()}
	if !s.IsSustainable() {
		t.Error("环保版本名称应被识别")
	}
}

func TestNameIndex(t *testing.T) {
	idx := NewNameIndex([]NamedEntity{{ID: 1, Name: "HQ"}, {ID: 2, Name: "HQ"}, {ID: 3, Name: "Remote"}})

	if id, ok := idx.Lookup("HQ"); !ok || id != 1 {
		t.Errorf("重名应保留首个，实际 id=%d ok=%v", id, ok)
	}
	if _, ok := idx.Lookup("Lab"); ok {
		t.Error("Lab 不应存在")
	}

	idx.Put("Lab", 9)
	if id, _ := idx.Lookup("Lab"); id != 9 {
		t.Errorf("Put 后期望 9，实际=%d", id)
	}
}
