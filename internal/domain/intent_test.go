package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		label string
		want  Intent
		ok    bool
	}{
		{"discovery", IntentDiscovery, true},
		{"Discovery", IntentDiscovery, true},
		{" project-creation ", IntentProjectCreation, true},
		{"project_creation", IntentProjectCreation, true},
		{"image generation", IntentImageGeneration, true},
		{"IMAGE-GENERATION", IntentImageGeneration, true},
		{"support", IntentSupport, true},
		{"learning", IntentLearning, true},
		{`"learning"`, IntentLearning, true},
		{"learning.", IntentLearning, true},
		{"shopping", IntentNone, false},
		{"", IntentNone, false},
		{"discovery and support", IntentNone, false},
	}

	for _, tt := range tests {
		got, ok := ParseIntent(tt.label)
		assert.Equal(t, tt.ok, ok, "label %q", tt.label)
		assert.Equal(t, tt.want, got, "label %q", tt.label)
	}
}

func TestIntentValid(t *testing.T) {
	for _, it := range AllIntents {
		assert.True(t, it.Valid(), "%s", it)
	}
	assert.False(t, IntentNone.Valid())
	assert.False(t, Intent("shopping").Valid())
}

func TestFallbackIntentIsSupport(t *testing.T) {
	assert.Equal(t, IntentSupport, FallbackIntent)
	assert.True(t, FallbackIntent.Valid())
}
