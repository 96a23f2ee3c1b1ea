package openapi

import "strings"

// MaxToolNameLength is the longest tool name models accept.
const MaxToolNameLength = 60

// ToolName converts an operationId (or "method_path" fallback) to snake_case:
// "listPets" -> "list_pets", "getHTTPStatus" -> "get_http_status",
// "get_/pets/{petId}" -> "get_pets_pet_id". Only ASCII letters and digits
// survive; every other rune separates words. The result is at most
// MaxToolNameLength characters.
func ToolName(s string) string {
	runes := []rune(s)
	var b strings.Builder
	lastUnderscore := true

	underscore := func() {
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	at := func(i int, class func(rune) bool) bool {
		return i >= 0 && i < len(runes) && class(runes[i])
	}

	for i, r := range runes {
		switch {
		case isUpper(r):
			prevLower := at(i-1, isLower) || at(i-1, isDigit)
			nextLower := at(i+1, isLower)
			if prevLower || (at(i-1, isUpper) && nextLower) {
				underscore()
			}
			b.WriteRune(r + ('a' - 'A'))
			lastUnderscore = false
		case isLower(r) || isDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			underscore()
		}
	}

	// The builder only holds ASCII, so byte and rune lengths agree.
	name := strings.Trim(b.String(), "_")
	if len(name) > MaxToolNameLength {
		name = strings.TrimRight(name[:MaxToolNameLength], "_")
	}
	return name
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
