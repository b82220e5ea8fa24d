package compare

import "testing"

func TestCompare_Identical(t *testing.T) {
	// Identical texts are exactly 100.00 with no differences. Hard invariant.
	for _, text := range []string{"a", "hello world", "line one\nline two\nline three", "répétition"} {
		res := Compare(text, text)
		if res.SimilarityPercentage != 100.0 {
			t.Errorf("Compare(%q, same): similarity = %v, want 100.0", text, res.SimilarityPercentage)
		}
		if len(res.Differences) != 0 {
			t.Errorf("Compare(%q, same): %d differences, want 0", text, len(res.Differences))
		}
	}
}

func TestCompare_SingleLineDiff(t *testing.T) {
	res := Compare("a\nb", "a\nc")
	if len(res.Differences) != 1 {
		t.Fatalf("got %d differences, want 1: %+v", len(res.Differences), res.Differences)
	}
	d := res.Differences[0]
	if d.LineNumber != 2 {
		t.Errorf("line_number = %d, want 2", d.LineNumber)
	}
	if d.Text1 != "b" || d.Text2 != "c" {
		t.Errorf("texts = %q/%q, want b/c", d.Text1, d.Text2)
	}
	if res.SimilarityPercentage >= 100.0 || res.SimilarityPercentage <= 0.0 {
		t.Errorf("similarity = %v, want strictly between 0 and 100", res.SimilarityPercentage)
	}
}

func TestCompare_MissingLines(t *testing.T) {
	// The shorter document is padded with empty lines for position-wise diffing.
	res := Compare("a\nb\nc", "a")
	if len(res.Differences) != 2 {
		t.Fatalf("got %d differences, want 2: %+v", len(res.Differences), res.Differences)
	}
	if res.Differences[0].LineNumber != 2 || res.Differences[0].Text2 != "" {
		t.Errorf("first diff = %+v, want line 2 with empty text2", res.Differences[0])
	}
	if res.Differences[1].LineNumber != 3 || res.Differences[1].Text1 != "c" {
		t.Errorf("second diff = %+v, want line 3 text1=c", res.Differences[1])
	}
}

func TestCompare_Disjoint(t *testing.T) {
	res := Compare("aaaa", "zzzz")
	if res.SimilarityPercentage > 50.0 {
		t.Errorf("similarity = %v for disjoint strings, want low", res.SimilarityPercentage)
	}
}

func TestCompare_Empty(t *testing.T) {
	res := Compare("", "")
	if res.SimilarityPercentage != 100.0 {
		t.Errorf("empty vs empty = %v, want 100.0", res.SimilarityPercentage)
	}
	res = Compare("text", "")
	if res.SimilarityPercentage != 0.0 {
		t.Errorf("text vs empty = %v, want 0.0", res.SimilarityPercentage)
	}
	if len(res.Differences) != 1 {
		t.Errorf("text vs empty: %d differences, want 1", len(res.Differences))
	}
}

func TestCompare_TwoDecimals(t *testing.T) {
	res := Compare("abcdef", "abcxyz")
	scaled := res.SimilarityPercentage * 100
	if scaled != float64(int64(scaled)) {
		t.Errorf("similarity %v not rounded to two decimals", res.SimilarityPercentage)
	}
}

func TestCompare_CRLF(t *testing.T) {
	res := Compare("a\r\nb", "a\nb")
	if len(res.Differences) != 0 {
		t.Errorf("CRLF normalization: got %d line differences, want 0", len(res.Differences))
	}
}
