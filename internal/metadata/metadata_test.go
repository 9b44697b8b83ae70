package metadata

import (
	"strings"
	"testing"
)

func TestSetGetRemove(t *testing.T) {
	m := New()
	m.SetString("dc:creator", "jane")
	v, ok := m.Get("dc:creator")
	if !ok || v.String() != "jane" {
		t.Fatalf("Get(dc:creator) = (%v, %v), want (jane, true)", v, ok)
	}
	m.Remove("dc:creator")
	if _, ok := m.Get("dc:creator"); ok {
		t.Fatalf("expected dc:creator removed")
	}
}

func TestCopy_IsDeep(t *testing.T) {
	m := New()
	m.SetInt("tiff:Orientation", 1)
	cp := m.Copy()
	cp.SetInt("tiff:Orientation", 6)

	orig, _ := m.Get("tiff:Orientation")
	copied, _ := cp.Get("tiff:Orientation")
	if orig.Int != 1 {
		t.Fatalf("original mutated by copy: got %d, want 1", orig.Int)
	}
	if copied.Int != 6 {
		t.Fatalf("copy = %d, want 6", copied.Int)
	}
}

func TestEnumerate_InsertionOrder(t *testing.T) {
	m := New()
	m.SetString("dc:title", "a")
	m.SetString("dc:description", "b")
	m.SetString("xmp:Rating", "5")

	tags := m.Enumerate(false)
	if len(tags) != 3 {
		t.Fatalf("got %d tags, want 3", len(tags))
	}
	if tags[0].Path != "dc:title" || tags[2].Path != "xmp:Rating" {
		t.Fatalf("enumerate did not preserve insertion order: %+v", tags)
	}
}

func TestToXMP_ContainsRequiredElements(t *testing.T) {
	m := New()
	m.SetString("dc:creator", "jane")
	xmp := m.ToXMP()
	s := string(xmp)
	for _, want := range []string{"x:xmpmeta", "rdf:RDF", `xmlns:dc=`, "<dc:creator>jane</dc:creator>"} {
		if !strings.Contains(s, want) {
			t.Fatalf("ToXMP output missing %q:\n%s", want, s)
		}
	}
}

func TestFromXMP_RoundTrip(t *testing.T) {
	m := New()
	m.SetString("dc:creator", "Jane & Jo <doe>")
	m.SetString("tiff:Make", "ExampleCam")

	roundTripped := FromXMP(m.ToXMP())
	creator, ok := roundTripped.Get("dc:creator")
	if !ok || creator.String() != "Jane & Jo <doe>" {
		t.Fatalf("dc:creator round trip = (%q, %v), want (%q, true)", creator.String(), ok, "Jane & Jo <doe>")
	}
	make_, ok := roundTripped.Get("tiff:Make")
	if !ok || make_.String() != "ExampleCam" {
		t.Fatalf("tiff:Make round trip = (%q, %v)", make_.String(), ok)
	}
}

func TestFromXMP_ToleratesGarbage(t *testing.T) {
	m := FromXMP([]byte("not xml at all"))
	if len(m.Enumerate(false)) != 0 {
		t.Fatalf("expected an empty Metadata from unparseable input")
	}
}
