package node

import (
	"testing"
	"time"
)

const minimalDoc = `{
  "points": [
    {"id":1,"type":"fxt.point.bool","name":"io.in"},
    {"id":2,"type":"fxt.point.bool","name":"virt.in"},
    {"id":3,"type":"fxt.point.bool","name":"io.out"},
    {"id":4,"type":"fxt.point.bool","name":"virt.out"}
  ],
  "cards": [
    {"id":1,"kind":"mock","channels":[
      {"name":"in","ioRegisterId":1,"virtualId":2,"direction":"input"},
      {"name":"out","ioRegisterId":3,"virtualId":4,"direction":"output"}
    ]}
  ],
  "components": [
    {"id":1,"type":"fxt.component.wire","in":[2],"out":[4]}
  ],
  "chains": [
    {"id":1,"components":[1]}
  ],
  "chassis": [
    {"name":"main","baseIntervalMs":5,
     "scanners":[{"name":"s1","cardIds":[1],"divider":1}],
     "executionSets":[{"name":"e1","chainIds":[1],"divider":1}]}
  ]
}`

func TestLoadBuildsCompleteNode(t *testing.T) {
	n, err := Load([]byte(minimalDoc))
	if err != nil {
		t.Fatal(err)
	}
	if n.DB.Len() != 4 {
		t.Fatalf("expected 4 points, got %d", n.DB.Len())
	}
	if len(n.Cards) != 1 || len(n.Components) != 1 || len(n.Chains) != 1 || len(n.Chassis) != 1 {
		t.Fatalf("expected one of each: cards=%d components=%d chains=%d chassis=%d",
			len(n.Cards), len(n.Components), len(n.Chains), len(n.Chassis))
	}

	if err := n.StartAll([]string{"main"}); err != nil {
		t.Fatal(err)
	}
	defer n.StopAll([]string{"main"})

	mock := n.Cards[1]
	type rawSetter interface {
		SetInputRaw(id uint32, raw []byte) error
	}
	ms, ok := mock.(rawSetter)
	if !ok {
		t.Fatal("expected mock card to support SetInputRaw")
	}
	if err := ms.SetInputRaw(1, []byte(`{"id":1,"valid":true,"val":true}`)); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if v, valid := n.DB.LookupByID(3).ReadBool(); valid && v {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("timed out waiting for input to propagate through the node")
}

const cardSetterDoc = `{
  "points": [
    {"id":1,"type":"fxt.point.bool","name":"io.in"},
    {"id":2,"type":"fxt.point.bool","name":"virt.in"}
  ],
  "cards": [
    {"id":1,"kind":"mock","typeName":"Mock IO","typeGuid":"fxt.card.mock","slot":2,
     "channels":[{"name":"in","ioRegisterId":1,"virtualId":2,"direction":"input"}],
     "setters":[{"targetId":1,"setter":{"type":"fxt.point.bool","initial":{"valid":true,"val":true}}}]}
  ]
}`

func TestLoadAppliesCardSettersOnStart(t *testing.T) {
	n, err := Load([]byte(cardSetterDoc))
	if err != nil {
		t.Fatal(err)
	}
	card := n.Cards[1]
	if card.TypeName() != "Mock IO" || card.TypeGUID() != "fxt.card.mock" || card.SlotNumber() != 2 {
		t.Fatalf("expected identity to be wired, got %q %q %d", card.TypeName(), card.TypeGUID(), card.SlotNumber())
	}
	if err := card.Start(); err != nil {
		t.Fatal(err)
	}
	v, valid := n.DB.LookupByID(1).ReadBool()
	if !valid || !v {
		t.Fatalf("expected card setter to seed io register true/valid on start, got %v/%v", v, valid)
	}
}

func TestLoadRejectsUnknownComponentReference(t *testing.T) {
	bad := `{
      "points": [{"id":1,"type":"fxt.point.bool","name":"a"}],
      "chains": [{"id":1,"components":[99]}]
    }`
	_, err := Load([]byte(bad))
	if err == nil {
		t.Fatal("expected error for unresolved component reference")
	}
}

func TestLoadRejectsUnknownCardKind(t *testing.T) {
	bad := `{
      "points": [
        {"id":1,"type":"fxt.point.bool","name":"a"},
        {"id":2,"type":"fxt.point.bool","name":"b"}
      ],
      "cards": [{"id":1,"kind":"nonexistent","channels":[
        {"name":"c","ioRegisterId":1,"virtualId":2,"direction":"input"}
      ]}]
    }`
	_, err := Load([]byte(bad))
	if err == nil {
		t.Fatal("expected error for unknown card kind")
	}
}
