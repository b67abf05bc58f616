package llm

import (
	"errors"
	"testing"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecodeObject(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want payload
	}{
		{
			name: "pure json",
			raw:  `{"name": "Toronto", "count": 3}`,
			want: payload{Name: "Toronto", Count: 3},
		},
		{
			name: "json fence",
			raw:  "```json\n{\"name\": \"Toronto\", \"count\": 3}\n```",
			want: payload{Name: "Toronto", Count: 3},
		},
		{
			name: "plain fence",
			raw:  "```\n{\"name\": \"Toronto\", \"count\": 3}\n```",
			want: payload{Name: "Toronto", Count: 3},
		},
		{
			name: "leading prose",
			raw:  "Sure! Here is the JSON you asked for:\n{\"name\": \"Toronto\", \"count\": 3}",
			want: payload{Name: "Toronto", Count: 3},
		},
		{
			name: "trailing commentary",
			raw:  `{"name": "Toronto", "count": 3}` + "\n\nLet me know if you need anything else!",
			want: payload{Name: "Toronto", Count: 3},
		},
		{
			name: "prose around fence",
			raw:  "Here you go:\n```json\n{\"name\": \"Toronto\", \"count\": 3}\n```\nHope that helps.",
			want: payload{Name: "Toronto", Count: 3},
		},
		{
			name: "surrounding whitespace",
			raw:  "\n\n  {\"name\": \"Toronto\", \"count\": 3}  \n",
			want: payload{Name: "Toronto", Count: 3},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got payload
			if err := DecodeObject(tc.raw, &got); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestDecodeObjectFenceMatchesInterior(t *testing.T) {
	interior := `{"name": "Berlin", "count": 7}`

	var direct, fenced payload
	if err := DecodeObject(interior, &direct); err != nil {
		t.Fatalf("direct parse: %v", err)
	}
	if err := DecodeObject("```json\n"+interior+"\n```", &fenced); err != nil {
		t.Fatalf("fenced parse: %v", err)
	}
	if direct != fenced {
		t.Fatalf("fenced result %+v differs from direct %+v", fenced, direct)
	}
}

func TestDecodeObjectMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{name: "no braces at all", raw: "I could not find any jobs on that page."},
		{name: "empty input", raw: ""},
		{name: "unquoted keys", raw: `{name: "Toronto"}`},
		{name: "trailing comma", raw: `{"name": "Toronto",}`},
		{name: "truncated object", raw: `{"name": "Toro`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got payload
			err := DecodeObject(tc.raw, &got)
			if err == nil {
				t.Fatal("expected an error")
			}

			var malformed *MalformedOutputError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedOutputError, got %T: %v", err, err)
			}
			if malformed.Raw != tc.raw {
				t.Fatalf("original text not retained: %q", malformed.Raw)
			}
		})
	}
}
