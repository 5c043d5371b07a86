package prompt

import "testing"

func TestInterpolate_SubstitutesVariables(t *testing.T) {
	vars := NewVariables().
		Set("name", "Ana").
		Set("company", "Acme")

	got := Interpolate("Hi {name}, welcome to {company}", vars)
	if got != "Hi Ana, welcome to Acme" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestInterpolate_DoubleBracePassesThrough(t *testing.T) {
	vars := NewVariables().Set("current_time", "ignored")

	got := Interpolate("{{current_time}}", vars)
	if got != "{{current_time}}" {
		t.Fatalf("expected protected span, got %q", got)
	}
}

func TestInterpolate_RemovesUnreplacedPlaceholders(t *testing.T) {
	got := Interpolate("Hi {name}!", NewVariables())
	if got != "Hi !" {
		t.Fatalf("expected %q, got %q", "Hi !", got)
	}
}

func TestInterpolate_CollapsesSpacesAfterRemoval(t *testing.T) {
	got := Interpolate("Hello {first_name} {last_name} there", NewVariables())
	if got != "Hello there" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestInterpolate_IgnoresNonLowercasePlaceholders(t *testing.T) {
	got := Interpolate("Code: {ID1}", NewVariables())
	if got != "Code: {ID1}" {
		t.Fatalf("expected untouched placeholder, got %q", got)
	}
}

func TestInterpolate_EmptyValueDoesNotSubstitute(t *testing.T) {
	vars := NewVariables().Set("name", "")

	got := Interpolate("Hi {name}!", vars)
	if got != "Hi !" {
		t.Fatalf("empty value should behave like absent, got %q", got)
	}
}

func TestInterpolate_EmptyTemplate(t *testing.T) {
	if got := Interpolate("", NewVariables().Set("a", "b")); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := Interpolate("", nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestInterpolate_MixedTemplate(t *testing.T) {
	vars := NewVariables().
		Set("agent_name", "Riley").
		Set("company", "CxTrack")

	tmpl := "You are {agent_name} at {company}. Current time: {{current_time}}. Greet {lead_name} warmly."
	got := Interpolate(tmpl, vars)
	want := "You are Riley at CxTrack. Current time: {{current_time}}. Greet warmly."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestInterpolate_DoubleBraceOnlyRoundTrip(t *testing.T) {
	vars := NewVariables().Set("system_var", "nope").Set("other", "x")

	for _, tmpl := range []string{
		"{{system_var}}",
		"start {{a}} middle {{b_c}} end",
		"no placeholders at all",
	} {
		if got := Interpolate(tmpl, vars); got != tmpl {
			t.Fatalf("expected round-trip for %q, got %q", tmpl, got)
		}
	}
}

func TestInterpolate_AppliesInInsertionOrder(t *testing.T) {
	// The first key's value introduces the second key's placeholder; insertion
	// order means the second pass sees and replaces it.
	vars := NewVariables().
		Set("greeting", "hello {name}").
		Set("name", "Ana")

	got := Interpolate("{greeting}", vars)
	if got != "hello Ana" {
		t.Fatalf("expected ordered substitution, got %q", got)
	}
}

func TestExtractVariables(t *testing.T) {
	got := ExtractVariables("{first_name} and {{system_var}} and {Second}")
	if len(got) != 1 {
		t.Fatalf("expected one variable, got %v", got)
	}
	if _, ok := got["first_name"]; !ok {
		t.Fatalf("expected first_name, got %v", got)
	}
}

func TestExtractVariables_Dedupes(t *testing.T) {
	got := ExtractVariables("{name} then {name} then {company}")
	if len(got) != 2 {
		t.Fatalf("expected two variables, got %v", got)
	}
}

func TestExtractVariables_EmptyTemplate(t *testing.T) {
	if got := ExtractVariables(""); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}
