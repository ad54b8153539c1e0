package i18n

import "testing"

func TestMatchAcceptLanguage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"empty header", "", "en-US"},
		{"exact english", "en-US", "en-US"},
		{"exact russian", "ru-RU", "ru-RU"},
		{"russian with fallback", "ru-RU,ru;q=0.9,en;q=0.5", "ru-RU"},
		{"bare russian", "ru", "ru-RU"},
		{"unsupported locale", "fr-FR", "en-US"},
		{"garbage header", ";;;", "en-US"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := MatchAcceptLanguage(tc.header).Locale(); got != tc.want {
				t.Fatalf("locale = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGetCatalogDefaultsToEnglish(t *testing.T) {
	t.Parallel()

	if got := GetCatalog("").Locale(); got != "en-US" {
		t.Fatalf("locale = %q, want en-US", got)
	}
	if got := GetCatalog("xx-invalid-").Locale(); got != "en-US" {
		t.Fatalf("locale = %q, want en-US", got)
	}
}

func TestFormatExpandsMetadata(t *testing.T) {
	t.Parallel()

	msg := GetCatalog("en-US").Format(codeShopItemUnavailable, map[string]string{"Item": "rifle.ak"})
	if msg != "Item rifle.ak is not available" {
		t.Fatalf("message = %q", msg)
	}
}

func TestFormatUnknownCodeFallsBack(t *testing.T) {
	t.Parallel()

	msg := GetCatalog("en-US").Format("NO_SUCH_CODE", nil)
	if msg == "" {
		t.Fatal("expected fallback message")
	}
}

func TestCatalogsCoverSameCodes(t *testing.T) {
	t.Parallel()

	for code := range enUSCatalog.messages {
		if _, ok := ruRUCatalog.messages[code]; !ok {
			t.Errorf("ru-RU catalog missing %q", code)
		}
	}
	for code := range ruRUCatalog.messages {
		if _, ok := enUSCatalog.messages[code]; !ok {
			t.Errorf("en-US catalog missing %q", code)
		}
	}
}
