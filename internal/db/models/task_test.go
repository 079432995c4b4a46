package models

import (
	"encoding/json"
	"testing"
)

func TestTaskPatch_DecodeDistinguishesAbsentFromNull(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantTitle   bool
		wantDesc    bool
		wantDescNil bool
		wantDone    bool
	}{
		{name: "empty object", body: `{}`},
		{name: "completed only", body: `{"completed":true}`, wantDone: true},
		{name: "null description", body: `{"description":null}`, wantDesc: true, wantDescNil: true},
		{name: "empty description", body: `{"description":""}`, wantDesc: true},
		{name: "all fields", body: `{"title":"a","description":"b","completed":false}`, wantTitle: true, wantDesc: true, wantDone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p TaskPatch
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if p.Title.Set != tt.wantTitle {
				t.Errorf("title set=%v, want %v", p.Title.Set, tt.wantTitle)
			}
			if p.Description.Set != tt.wantDesc {
				t.Errorf("description set=%v, want %v", p.Description.Set, tt.wantDesc)
			}
			if tt.wantDesc && (p.Description.Value == nil) != tt.wantDescNil {
				t.Errorf("description nil=%v, want %v", p.Description.Value == nil, tt.wantDescNil)
			}
			if p.Completed.Set != tt.wantDone {
				t.Errorf("completed set=%v, want %v", p.Completed.Set, tt.wantDone)
			}
		})
	}
}

func TestTaskPatch_MarshalOmitsAbsentFields(t *testing.T) {
	p := TaskPatch{Completed: Some(true), Description: Some[*string](nil)}

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := got["title"]; ok {
		t.Fatalf("title should be omitted: %s", b)
	}
	if v, ok := got["description"]; !ok || v != nil {
		t.Fatalf("description should be explicit null: %s", b)
	}
	if got["completed"] != true {
		t.Fatalf("completed should be true: %s", b)
	}
}

func TestTaskPatch_ApplyTouchesOnlySetFields(t *testing.T) {
	task := Task{ID: 1, Title: "Buy milk", Description: StringPtr("2 litres")}

	TaskPatch{Completed: Some(true)}.Apply(&task)

	if task.Title != "Buy milk" || task.Description == nil || *task.Description != "2 litres" {
		t.Fatalf("unexpected change: %+v", task)
	}
	if !task.Completed {
		t.Fatalf("completed not applied")
	}
	if !(TaskPatch{}).Empty() {
		t.Fatalf("zero patch should be empty")
	}
}
