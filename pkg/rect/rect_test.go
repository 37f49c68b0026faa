package rect

import (
	"testing"
)

func TestIntersectionExamples(t *testing.T) {
	image := New(0, 0, 640, 480)

	subset := New(100, 200, 50, 50)
	if !image.Intersects(subset) {
		t.Fatalf("expected %v to intersect %v", image, subset)
	}

	src := subset.Intersection(image)
	if src != New(100, 200, 50, 50) {
		t.Errorf("unexpected intersection: %v", src)
	}

	dst := src.Sub(src.Offset())
	if dst != New(0, 0, 50, 50) {
		t.Errorf("unexpected destination rect: %v", dst)
	}

	outside := New(700, 0, 10, 10)
	if image.Intersects(outside) {
		t.Errorf("expected %v not to intersect %v", image, outside)
	}
}

func TestIntersects(t *testing.T) {
	base := New(10, 10, 20, 20)

	testCases := []struct {
		name  string
		other Rect
		want  bool
	}{
		{"identical", New(10, 10, 20, 20), true},
		{"inside", New(15, 15, 2, 2), true},
		{"covering", New(0, 0, 100, 100), true},
		{"overlap top left", New(5, 5, 10, 10), true},
		{"overlap bottom right", New(29, 29, 10, 10), true},
		{"touching right edge", New(30, 10, 5, 5), false},
		{"touching bottom edge", New(10, 30, 5, 5), false},
		{"touching left edge", New(5, 10, 5, 5), false},
		{"disjoint x only", New(40, 10, 5, 5), false},
		{"disjoint y only", New(10, 40, 5, 5), false},
		{"empty inside", New(15, 15, 0, 5), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := base.Intersects(tc.other); got != tc.want {
				t.Errorf("%v.Intersects(%v) = %v, want %v", base, tc.other, got, tc.want)
			}
			if got := tc.other.Intersects(base); got != tc.want {
				t.Errorf("%v.Intersects(%v) = %v, want %v", tc.other, base, got, tc.want)
			}
		})
	}
}

func TestIntersectionProperties(t *testing.T) {
	rects := []Rect{
		New(0, 0, 640, 480),
		New(100, 200, 50, 50),
		New(-20, -20, 60, 30),
		New(600, 400, 100, 100),
		New(639, 479, 1, 1),
		New(5, 7, 3, 900),
	}

	for _, a := range rects {
		if got := a.Intersection(a); got != a {
			t.Errorf("%v ∩ itself = %v", a, got)
		}
		for _, b := range rects {
			if !a.Intersects(b) {
				continue
			}
			ab := a.Intersection(b)
			ba := b.Intersection(a)
			if ab != ba {
				t.Errorf("%v ∩ %v = %v but %v ∩ %v = %v", a, b, ab, b, a, ba)
			}
			if ab.IsEmpty() {
				t.Errorf("%v ∩ %v is empty although they intersect", a, b)
			}
			if !a.Contains(ab) || !b.Contains(ab) {
				t.Errorf("%v is not contained in both %v and %v", ab, a, b)
			}
		}
	}
}

func TestIntersectionDisjointIsEmpty(t *testing.T) {
	got := New(0, 0, 10, 10).Intersection(New(20, 20, 5, 5))
	if !got.IsEmpty() {
		t.Errorf("expected empty rect, got %v", got)
	}
	if got.SizeX < 0 || got.SizeY < 0 {
		t.Errorf("negative size in %v", got)
	}
}

func TestSubAnchorsAtOrigin(t *testing.T) {
	for _, r := range []Rect{New(3, 4, 5, 6), New(-7, 12, 1, 1), New(0, 0, 0, 0)} {
		got := r.Sub(r.Offset())
		if got.Offset() != (Point{}) {
			t.Errorf("%v.Sub(offset) is not anchored at the origin: %v", r, got)
		}
		if got.Size() != r.Size() {
			t.Errorf("%v.Sub(offset) changed size: %v", r, got)
		}
		if back := got.Add(r.Offset()); back != r {
			t.Errorf("Add did not undo Sub: %v != %v", back, r)
		}
	}
}

func TestUnionAndContains(t *testing.T) {
	a := New(0, 0, 10, 10)
	b := New(20, 5, 5, 20)

	u := a.Union(b)
	if u != New(0, 0, 25, 25) {
		t.Errorf("unexpected union: %v", u)
	}
	if !u.Contains(a) || !u.Contains(b) {
		t.Errorf("union %v does not contain its inputs", u)
	}
	if a.Union(Rect{}) != a {
		t.Errorf("empty rect changed union")
	}

	if !a.ContainsPoint(0, 0) || !a.ContainsPoint(9, 9) {
		t.Error("expected corner pixels inside")
	}
	if a.ContainsPoint(10, 0) || a.ContainsPoint(0, 10) {
		t.Error("expected upper bound to be exclusive")
	}
}

func TestFromBounds(t *testing.T) {
	got := FromBounds(100, 200, 149, 249)
	if got != New(100, 200, 50, 50) {
		t.Errorf("FromBounds = %v", got)
	}

	inverted := FromBounds(10, 10, 5, 20)
	if !inverted.IsEmpty() {
		t.Errorf("inverted bounds should be empty, got %v", inverted)
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Rect
		wantErr bool
	}{
		{in: "0,0,640,480", want: New(0, 0, 640, 480)},
		{in: "(100, 200, 50, 50)", want: New(100, 200, 50, 50)},
		{in: "-5,3,1,1", want: New(-5, 3, 1, 1)},
		{in: "1,2,3", wantErr: true},
		{in: "a,b,c,d", wantErr: true},
		{in: "0,0,-1,5", wantErr: true},
	}

	for _, tc := range testCases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
