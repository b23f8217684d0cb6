package entities

import (
	"strings"
	"testing"
	"time"
)

func TestSettingsDefaults(t *testing.T) {
	s := NewSettings()
	if s.Voice() != DefaultVoice {
		t.Errorf("expected default voice %s, got %s", DefaultVoice, s.Voice())
	}
	if s.ResponseWindow() != DefaultResponseWindow {
		t.Errorf("expected default response window, got %v", s.ResponseWindow())
	}
	if s.StoryLevel() != DefaultStoryLevel {
		t.Errorf("expected default story level, got %d", s.StoryLevel())
	}
	if s.Audience() != AudienceKing {
		t.Errorf("expected default audience king, got %s", s.Audience())
	}
}

func TestStoryLevelClamping(t *testing.T) {
	s := NewSettings()
	s.SetStoryLevel(0)
	if s.StoryLevel() != 1 {
		t.Errorf("expected clamp to 1, got %d", s.StoryLevel())
	}
	s.SetStoryLevel(42)
	if s.StoryLevel() != 10 {
		t.Errorf("expected clamp to 10, got %d", s.StoryLevel())
	}
}

func TestInvalidAudienceIgnored(t *testing.T) {
	s := NewSettings()
	s.SetAudience(Audience("queen"))
	if s.Audience() != AudienceKing {
		t.Errorf("invalid audience must be ignored, got %s", s.Audience())
	}
}

func TestInvalidResponseWindowIgnored(t *testing.T) {
	s := NewSettings()
	s.SetResponseWindow(-time.Second)
	if s.ResponseWindow() != DefaultResponseWindow {
		t.Errorf("negative window must be ignored, got %v", s.ResponseWindow())
	}
}

func TestSystemInstructionComposition(t *testing.T) {
	s := NewSettings()
	s.SetSystemPrompt("Tell tales.")
	s.SetAudience(AudienceEmpress)
	s.SetStoryLevel(7)

	instruction := s.SystemInstruction()
	if !strings.HasPrefix(instruction, "Tell tales.") {
		t.Error("instruction must begin with the configured prompt")
	}
	if !strings.Contains(instruction, "Empress") {
		t.Error("instruction must name the audience")
	}
	if !strings.Contains(instruction, "Storytelling Level: 7/10") {
		t.Error("instruction must carry the story level")
	}
	if !strings.Contains(instruction, "7-9 year old") {
		t.Error("level 7 must map to the 7-9 year old description")
	}
}

func TestCharacterDescriptionPerAudience(t *testing.T) {
	s := NewSettings()

	s.SetAudience(AudienceKing)
	if !strings.Contains(s.CharacterDescription(), "King") {
		t.Error("king audience must describe King")
	}

	s.SetAudience(AudienceEmpress)
	if !strings.Contains(s.CharacterDescription(), "Empress") {
		t.Error("empress audience must describe Empress")
	}

	s.SetAudience(AudienceBoth)
	desc := s.CharacterDescription()
	if !strings.Contains(desc, "King") || !strings.Contains(desc, "Empress") {
		t.Error("both audience must describe both children")
	}
}
