// Package i18n holds UI and validation message translations.
package i18n

import (
	"context"
	"strings"
)

// DefaultLang is used when no supported language is requested.
const DefaultLang = "en"

type langKey struct{}

var messages = map[string]map[string]string{
	"en": {
		"required":             "Required",
		"must_be_number":       "Must be a valid number",
		"out_of_range":         "Out of range",
		"dimension_range":      "Width and height must be between 100 and 9999 mm",
		"too_small":            "Must be at least 1",
		"invalid_date":         "Invalid date (YYYY-MM-DD)",
		"invalid_choice":       "Invalid choice",
		"all_fields":           "All fields are required.",
		"numbers_invalid":      "Width, height, and quantity must be valid numbers.",
		"invalid_form":         "The form could not be read. Please fill it in again.",
		"quote_not_found":      "Quote not found.",
		"quote_id_missing":     "Quote id is missing",
		"item_not_found":       "Item not found.",
		"unauthorized":         "You are not authorized to use this application.",
		"invalid_login":        "Invalid email or password",
		"email_taken":          "Email already exists",
		"email_password_req":   "Email and password are required",
		"no_quotes":            "No quotes yet.",
		"no_items":             "No items yet.",
		"confirm_delete_quote": "Are you sure you want to delete this quote? This cannot be undone.",
		"confirm_delete_item":  "Are you sure you want to delete this item?",
	},
	"es": {
		"required":             "Obligatorio",
		"must_be_number":       "Debe ser un número válido",
		"out_of_range":         "Fuera de rango",
		"dimension_range":      "Ancho y alto deben estar entre 100 y 9999 mm",
		"too_small":            "Debe ser al menos 1",
		"invalid_date":         "Fecha inválida (AAAA-MM-DD)",
		"invalid_choice":       "Opción inválida",
		"all_fields":           "Todos los campos son obligatorios.",
		"numbers_invalid":      "Ancho, alto y cantidad deben ser números válidos.",
		"invalid_form":         "No se pudo leer el formulario. Vuelva a completarlo.",
		"quote_not_found":      "Cotización no encontrada.",
		"quote_id_missing":     "Falta el id de la cotización",
		"item_not_found":       "Ítem no encontrado.",
		"unauthorized":         "No está autorizado para usar esta aplicación.",
		"invalid_login":        "Correo o contraseña inválidos",
		"email_taken":          "El correo ya existe",
		"email_password_req":   "Correo y contraseña son obligatorios",
		"no_quotes":            "Aún no hay cotizaciones.",
		"no_items":             "Aún no hay ítems.",
		"confirm_delete_quote": "¿Seguro que desea eliminar esta cotización? No se puede deshacer.",
		"confirm_delete_item":  "¿Seguro que desea eliminar este ítem?",
	},
	"fr": {
		"required":        "Requis",
		"must_be_number":  "Doit être un nombre valide",
		"dimension_range": "La largeur et la hauteur doivent être comprises entre 100 et 9999 mm",
		"invalid_date":    "Date invalide (AAAA-MM-JJ)",
		"all_fields":      "Tous les champs sont requis.",
		"quote_not_found": "Devis introuvable.",
	},
}

// Supported reports whether lang has a translation table.
func Supported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// T translates code into lang, falling back to English, then to the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks the first supported primary tag of an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		primary := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if Supported(primary) {
			return primary
		}
	}
	return DefaultLang
}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the request language or DefaultLang.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(langKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}
