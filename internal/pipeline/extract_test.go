package pipeline

import (
	"strings"
	"testing"
)

func TestParseIdentificationStructured(t *testing.T) {
	raw := `{"category":"animal","common_name":"Red Fox","scientific_name":"Vulpes vulpes","confidence":0.92,"details":"Rusty coat, black legs."}`

	ident, err := ParseIdentification(raw)
	if err != nil {
		t.Fatalf("ParseIdentification failed: %v", err)
	}
	if ident.Category != CategoryAnimal {
		t.Errorf("expected animal category, got %q", ident.Category)
	}
	if ident.CommonName != "Red Fox" || ident.ScientificName != "Vulpes vulpes" {
		t.Errorf("unexpected names: %q / %q", ident.CommonName, ident.ScientificName)
	}
	if ident.Confidence != 0.92 {
		t.Errorf("expected confidence 0.92, got %v", ident.Confidence)
	}
}

func TestParseIdentificationCodeFence(t *testing.T) {
	raw := "```json\n{\"category\":\"plant\",\"common_name\":\"Japanese Maple\",\"confidence\":0.7}\n```"

	ident, err := ParseIdentification(raw)
	if err != nil {
		t.Fatalf("ParseIdentification failed: %v", err)
	}
	if ident.CommonName != "Japanese Maple" {
		t.Errorf("expected Japanese Maple, got %q", ident.CommonName)
	}
	if ident.Category != CategoryPlant {
		t.Errorf("expected plant, got %q", ident.Category)
	}
}

func TestParseIdentificationProseWrapped(t *testing.T) {
	raw := `Here is the identification you asked for: {"category":"bug","common_name":"Monarch Butterfly","confidence":0.8} Hope that helps!`

	ident, err := ParseIdentification(raw)
	if err != nil {
		t.Fatalf("ParseIdentification failed: %v", err)
	}
	if ident.CommonName != "Monarch Butterfly" {
		t.Errorf("expected Monarch Butterfly, got %q", ident.CommonName)
	}
}

func TestParseIdentificationNormalizesCategory(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Insect", CategoryBug},
		{"arthropod", CategoryBug},
		{" Animal ", CategoryAnimal},
		{"PLANT", CategoryPlant},
		{"mineral", CategoryUnknown},
	}
	for _, tc := range cases {
		if got := normalizeCategory(tc.in); got != tc.want {
			t.Errorf("normalizeCategory(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseIdentificationRejectsUnnamed(t *testing.T) {
	raw := `{"category":"animal","confidence":0.9}`

	if _, err := ParseIdentification(raw); err == nil {
		t.Fatal("expected error for a named category with no names")
	}
}

func TestParseIdentificationAllowsUnnamedUnknown(t *testing.T) {
	raw := `{"category":"unknown","confidence":0.1}`

	ident, err := ParseIdentification(raw)
	if err != nil {
		t.Fatalf("ParseIdentification failed: %v", err)
	}
	if ident.Named() {
		t.Error("unknown identification should carry no names")
	}
}

func TestParseIdentificationConfidenceFallback(t *testing.T) {
	// No confidence field: the raw-text heuristic applies. The payload is
	// over 50 characters and quoted, which lands on the mid tier.
	raw := `{"category":"animal","common_name":"Barn Owl","scientific_name":"Tyto alba"}`

	ident, err := ParseIdentification(raw)
	if err != nil {
		t.Fatalf("ParseIdentification failed: %v", err)
	}
	if ident.Confidence != 0.6 {
		t.Errorf("expected heuristic confidence 0.6, got %v", ident.Confidence)
	}
}

func TestParseIdentificationClampsConfidence(t *testing.T) {
	raw := `{"category":"animal","common_name":"Raccoon","confidence":7}`

	ident, err := ParseIdentification(raw)
	if err != nil {
		t.Fatalf("ParseIdentification failed: %v", err)
	}
	if ident.Confidence != 1 {
		t.Errorf("expected confidence clamped to 1, got %v", ident.Confidence)
	}
}

func TestDecodeModelJSONRejectsGarbage(t *testing.T) {
	var ident Identification
	if err := DecodeModelJSON("I have no idea what this is.", &ident); err == nil {
		t.Fatal("expected decode error for non-JSON prose")
	}
	if err := DecodeModelJSON("   ", &ident); err == nil {
		t.Fatal("expected decode error for blank payload")
	}
}

func TestStripCodeFenceVariants(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
	}
	for _, tc := range cases {
		if got := stripCodeFence(tc.in); got != tc.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNamed(t *testing.T) {
	if (Identification{}).Named() {
		t.Error("empty identification should not be named")
	}
	if !(Identification{ScientificName: "Quercus robur"}).Named() {
		t.Error("scientific name alone should count as named")
	}
	if !(Identification{CommonName: strings.Repeat("x", 3)}).Named() {
		t.Error("common name alone should count as named")
	}
}
