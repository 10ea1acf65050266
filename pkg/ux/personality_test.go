// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package ux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePersonalityLevel(t *testing.T) {
	tests := map[string]PersonalityLevel{
		"full":     PersonalityFull,
		"":         PersonalityFull,
		"whatever": PersonalityFull,
		"Minimal":  PersonalityMinimal,
		"m":        PersonalityMinimal,
		"machine":  PersonalityMachine,
		" plain ":  PersonalityMachine,
		"q":        PersonalityMachine,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParsePersonalityLevel(in), in)
	}
}

func TestInitPersonality_Env(t *testing.T) {
	orig := GetPersonality()
	t.Cleanup(func() { SetPersonality(orig) })

	t.Setenv(PersonalityEnv, "minimal")
	InitPersonality()
	assert.Equal(t, PersonalityMinimal, GetPersonality().Level)
	assert.False(t, ShouldShowColors())
}

func TestSetPersonality(t *testing.T) {
	orig := GetPersonality()
	t.Cleanup(func() { SetPersonality(orig) })

	SetPersonality(Personality{Level: PersonalityMachine})
	assert.Equal(t, PersonalityMachine, GetPersonality().Level)

	SetPersonalityLevel(PersonalityFull)
	assert.True(t, ShouldShowColors())
}
