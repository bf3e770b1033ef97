package zmachine

import "testing"

// buildObjectWorld lays out a v3 object table with two objects: object 1
// ("box", attribute 0 set, two properties) containing object 2.
func buildObjectWorld(t *testing.T) *Memory {
	t.Helper()
	m := testMemory(t, 3, nil)

	wb := func(addr uint32, b byte) {
		t.Helper()
		if err := m.WriteByte(addr, b); err != nil {
			t.Fatal(err)
		}
	}
	ww := func(addr uint32, w Word) {
		t.Helper()
		if err := m.WriteWord(addr, w); err != nil {
			t.Fatal(err)
		}
	}

	// Property defaults: prop 2 defaults to 0x0666.
	ww(testObjects+2*(2-1), 0x0666)

	entries := uint32(testObjects + 31*2)
	// Object 1: attr 0 set, child 2, props at 0x350.
	wb(entries+0, 0x80)
	wb(entries+6, 2)
	ww(entries+7, 0x0350)
	// Object 2: parent 1, props at 0x360.
	wb(entries+9+4, 1)
	ww(entries+9+7, 0x0360)

	// Object 1 property table: name "box", prop 5 (len 2) = 0x1234,
	// prop 3 (len 1) = 0xab.
	ww(0x0351, 0x9e9d) // "box"
	wb(0x0350, 1)
	wb(0x0353, 32*(2-1)+5)
	ww(0x0354, 0x1234)
	wb(0x0356, 32*(1-1)+3)
	wb(0x0357, 0xab)
	wb(0x0358, 0)

	// Object 2 property table: empty name, no properties.
	wb(0x0360, 0)
	wb(0x0361, 0)

	return m
}

func TestObjectAttributes(t *testing.T) {
	objects := NewObjectTable(buildObjectWorld(t))

	set, err := objects.TestAttr(1, 0)
	if err != nil || !set {
		t.Errorf("TestAttr(1, 0) = %v, %v; want set", set, err)
	}
	set, _ = objects.TestAttr(1, 1)
	if set {
		t.Error("TestAttr(1, 1) = set, want clear")
	}

	if err := objects.SetAttr(1, 17); err != nil {
		t.Fatal(err)
	}
	set, _ = objects.TestAttr(1, 17)
	if !set {
		t.Error("attribute 17 not set after SetAttr")
	}
	if err := objects.ClearAttr(1, 17); err != nil {
		t.Fatal(err)
	}
	set, _ = objects.TestAttr(1, 17)
	if set {
		t.Error("attribute 17 still set after ClearAttr")
	}

	if _, err := objects.TestAttr(1, 32); err == nil {
		t.Error("v3 attribute 32 should be rejected")
	}
}

func TestObjectTree(t *testing.T) {
	objects := NewObjectTable(buildObjectWorld(t))

	parent, _ := objects.Parent(2)
	if parent != 1 {
		t.Errorf("Parent(2) = %d, want 1", parent)
	}
	child, _ := objects.Child(1)
	if child != 2 {
		t.Errorf("Child(1) = %d, want 2", child)
	}

	if err := objects.Remove(2); err != nil {
		t.Fatal(err)
	}
	parent, _ = objects.Parent(2)
	child, _ = objects.Child(1)
	if parent != 0 || child != 0 {
		t.Errorf("after Remove: parent=%d child=%d, want 0/0", parent, child)
	}

	if err := objects.Insert(2, 1); err != nil {
		t.Fatal(err)
	}
	parent, _ = objects.Parent(2)
	child, _ = objects.Child(1)
	if parent != 1 || child != 2 {
		t.Errorf("after Insert: parent=%d child=%d, want 1/2", parent, child)
	}
}

func TestObjectName(t *testing.T) {
	objects := NewObjectTable(buildObjectWorld(t))
	name, err := objects.Name(1)
	if err != nil {
		t.Fatal(err)
	}
	if name != "box" {
		t.Errorf("Name(1) = %q, want %q", name, "box")
	}
	name, err = objects.Name(2)
	if err != nil || name != "" {
		t.Errorf("Name(2) = %q, %v; want empty", name, err)
	}
}

func TestObjectProperties(t *testing.T) {
	objects := NewObjectTable(buildObjectWorld(t))

	v, err := objects.GetProp(1, 5)
	if err != nil || v != 0x1234 {
		t.Errorf("GetProp(1, 5) = %#x, %v; want 0x1234", uint16(v), err)
	}
	v, _ = objects.GetProp(1, 3)
	if v != 0xab {
		t.Errorf("GetProp(1, 3) = %#x, want 0xab", uint16(v))
	}
	// Absent property falls back to the defaults table.
	v, _ = objects.GetProp(1, 2)
	if v != 0x0666 {
		t.Errorf("GetProp(1, 2) = %#x, want default 0x0666", uint16(v))
	}

	if err := objects.PutProp(1, 5, 0x5678); err != nil {
		t.Fatal(err)
	}
	v, _ = objects.GetProp(1, 5)
	if v != 0x5678 {
		t.Errorf("GetProp after PutProp = %#x, want 0x5678", uint16(v))
	}
	if err := objects.PutProp(1, 9, 1); err == nil {
		t.Error("PutProp on a missing property should fail")
	}

	addr, _ := objects.GetPropAddr(1, 5)
	if addr != 0x0354 {
		t.Errorf("GetPropAddr(1, 5) = %#x, want 0x0354", uint16(addr))
	}
	length, _ := objects.GetPropLen(addr)
	if length != 2 {
		t.Errorf("GetPropLen = %d, want 2", length)
	}
	if length, _ := objects.GetPropLen(0); length != 0 {
		t.Errorf("GetPropLen(0) = %d, want 0", length)
	}

	next, _ := objects.NextProp(1, 0)
	if next != 5 {
		t.Errorf("NextProp(1, 0) = %d, want 5", next)
	}
	next, _ = objects.NextProp(1, 5)
	if next != 3 {
		t.Errorf("NextProp(1, 5) = %d, want 3", next)
	}
	next, _ = objects.NextProp(1, 3)
	if next != 0 {
		t.Errorf("NextProp(1, 3) = %d, want 0", next)
	}
}
