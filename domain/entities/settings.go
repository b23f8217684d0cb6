package entities

import (
	"fmt"
	"sync"
	"time"
)

// Audience selects who the story is told for.
type Audience string

const (
	AudienceKing    Audience = "king"
	AudienceEmpress Audience = "empress"
	AudienceBoth    Audience = "both"
)

// DefaultSystemPrompt is the storyteller persona used when no prompt
// override has been configured.
const DefaultSystemPrompt = `You are a wise and magical storyteller for young children. Your stories are gentle adventures filled with wonder and fun characters. In your stories, you subtly teach important lessons about kindness, curiosity, and honesty. You may sparingly include elements of Haitian culture. Always be encouraging and incorporate the children's ideas into the narrative. Start with a simple story starter and prompt for their ideas with "What happens next?" or "What if...". When you describe a new scene, try to be very visual.`

const (
	// DefaultVoice is the prebuilt synthesis voice for the storyteller.
	DefaultVoice = "Zephyr"

	// DefaultResponseWindow is how long the countdown runs after the
	// storyteller asks a question.
	DefaultResponseWindow = 10 * time.Second

	// DefaultStoryLevel sits near the simple end of the 1..10 scale.
	DefaultStoryLevel = 3
)

// Settings is the mutable session configuration owned by the presentation
// layer and read by the core when a story session starts.
type Settings struct {
	mu             sync.RWMutex
	systemPrompt   string
	voice          string
	responseWindow time.Duration
	storyLevel     int
	audience       Audience
}

// NewSettings returns settings with the storyteller defaults.
func NewSettings() *Settings {
	return &Settings{
		systemPrompt:   DefaultSystemPrompt,
		voice:          DefaultVoice,
		responseWindow: DefaultResponseWindow,
		storyLevel:     DefaultStoryLevel,
		audience:       AudienceKing,
	}
}

func (s *Settings) SystemPrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.systemPrompt
}

func (s *Settings) SetSystemPrompt(prompt string) {
	s.mu.Lock()
	s.systemPrompt = prompt
	s.mu.Unlock()
}

func (s *Settings) Voice() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voice
}

func (s *Settings) SetVoice(voice string) {
	s.mu.Lock()
	s.voice = voice
	s.mu.Unlock()
}

func (s *Settings) ResponseWindow() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.responseWindow
}

func (s *Settings) SetResponseWindow(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.responseWindow = d
	s.mu.Unlock()
}

func (s *Settings) StoryLevel() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storyLevel
}

// SetStoryLevel clamps level into the 1..10 scale.
func (s *Settings) SetStoryLevel(level int) {
	if level < 1 {
		level = 1
	} else if level > 10 {
		level = 10
	}
	s.mu.Lock()
	s.storyLevel = level
	s.mu.Unlock()
}

func (s *Settings) Audience() Audience {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audience
}

func (s *Settings) SetAudience(a Audience) {
	switch a {
	case AudienceKing, AudienceEmpress, AudienceBoth:
	default:
		return
	}
	s.mu.Lock()
	s.audience = a
	s.mu.Unlock()
}

// SystemInstruction composes the full instruction sent when the live
// session connects: persona, audience, and complexity guidance.
func (s *Settings) SystemInstruction() string {
	s.mu.RLock()
	prompt := s.systemPrompt
	audience := s.audience
	level := s.storyLevel
	s.mu.RUnlock()

	return fmt.Sprintf("%s\n\n%s\n\nStorytelling Level: %d/10. %s",
		prompt, audienceDescription(audience), level, levelDescription(level))
}

// CharacterDescription describes the story's protagonists for the
// illustration prompt.
func (s *Settings) CharacterDescription() string {
	return CharacterDescription(s.Audience())
}

// CharacterDescription maps an audience to the protagonists an
// illustration should depict.
func CharacterDescription(a Audience) string {
	switch a {
	case AudienceEmpress:
		return "The main character is a 3-year-old girl named Empress."
	case AudienceKing:
		return "The main character is a young, brown-skinned boy with curly black hair named King."
	default:
		return "The main characters are King, a young, brown-skinned boy with curly black hair, and Empress, a 3-year-old girl."
	}
}

func audienceDescription(a Audience) string {
	switch a {
	case AudienceEmpress:
		return "The audience is a 3-year-old girl named Empress. Tailor the story for her age and address her by name."
	case AudienceKing:
		return "The audience is a 4.5-year-old boy named King. Tailor the story for his age and address him by name."
	default:
		return "The audience is two children: King, a 4.5-year-old boy, and Empress, a 3-year-old girl. Please address both of them in the story."
	}
}

func levelDescription(level int) string {
	switch {
	case level <= 2:
		return "The story should be extremely simple, using single-clause sentences and vocabulary a 2-3 year old can understand."
	case level <= 4:
		return "The story should be simple, with basic sentence structures and vocabulary suitable for a 3-5 year old."
	case level <= 6:
		return "The story can have slightly more complex sentences and a broader vocabulary, suitable for a 5-7 year old."
	case level <= 8:
		return "The story should be more descriptive, with compound sentences and richer vocabulary for a 7-9 year old."
	default:
		return "The story can be complex and nuanced, with sophisticated vocabulary and themes suitable for a child aged 10+."
	}
}
