package repositories

import (
	"regexp"
	"testing"
)

func TestSearchRegexMatchesLiterally(t *testing.T) {
	re := searchRegex("mario.rossi+test@example.com")
	if re.Options != "i" {
		t.Errorf("options = %q, want case-insensitive", re.Options)
	}

	compiled, err := regexp.Compile("(?i)" + re.Pattern)
	if err != nil {
		t.Fatalf("pattern does not compile: %v", err)
	}

	if !compiled.MatchString("MARIO.Rossi+test@example.com") {
		t.Error("literal match must be case-insensitive")
	}
	if compiled.MatchString("marioXrossiTtest@example.com") {
		t.Error("metacharacters in the search term must not act as wildcards")
	}
}

func TestSearchRegexNeverFailsToCompile(t *testing.T) {
	for _, s := range []string{"(", "[a-z", "a{2,", `\`, "**"} {
		re := searchRegex(s)
		if _, err := regexp.Compile(re.Pattern); err != nil {
			t.Errorf("searchRegex(%q) produced invalid pattern %q: %v", s, re.Pattern, err)
		}
	}
}
