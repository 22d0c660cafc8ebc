package i18n

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("es-AR,es;q=0.9") != "es" {
		t.Fatalf("expected es")
	}
	if DetectLanguage("FR-ca") != "fr" {
		t.Fatalf("expected fr for FR-ca")
	}
	if DetectLanguage("de-DE,de;q=0.8") != "en" {
		t.Fatalf("expected en fallback")
	}
	if DetectLanguage("") != "en" {
		t.Fatalf("expected default en")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("es", "required") != "Obligatorio" {
		t.Fatalf("expected Obligatorio")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// code missing in fr -> english
	if T("fr", "no_items") != "No items yet." {
		t.Fatalf("expected en fallback for fr lang")
	}
	// unknown language -> english
	if T("de", "required") != "Required" {
		t.Fatalf("expected en fallback for de lang")
	}
}

func TestLangContext(t *testing.T) {
	if LangFromContext(context.Background()) != DefaultLang {
		t.Fatalf("expected default lang")
	}
	if LangFromContext(WithLang(context.Background(), "es")) != "es" {
		t.Fatalf("expected es from context")
	}
}
