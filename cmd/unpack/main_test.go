package main

import (
	"testing"

	"unpack/pkg/unpack"
)

func TestParseArgs(t *testing.T) {
	newContext, err := parseArgs([]string{"/data/set.zip", "/out"}, unpack.Options{})
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	c, err := newContext()
	if err != nil {
		t.Fatalf("newContext failed: %v", err)
	}
	if c.ID() != "set" || c.Root() != "/out" {
		t.Errorf("unexpected context id=%q root=%q", c.ID(), c.Root())
	}

	newContext, err = parseArgs([]string{"8080", "node-1", "/out"}, unpack.Options{})
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	if c, _ = newContext(); c.ID() != "node-1" {
		t.Errorf("expected node id, got %q", c.ID())
	}
}

func TestParseArgsRejectsBadInput(t *testing.T) {
	cases := [][]string{
		{},
		{"only-one"},
		{"a", "b", "c", "d"},
		{"notaport", "id", "/out"},
		{"70000", "id", "/out"},
		{"0", "id", "/out"},
		{"/data/", "/out"},
	}
	for _, args := range cases {
		if _, err := parseArgs(args, unpack.Options{}); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}
