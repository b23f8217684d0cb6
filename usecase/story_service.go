package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fableforge/whatif/domain/entities"
	"github.com/fableforge/whatif/domain/repositories"
	"github.com/fableforge/whatif/internal/events"
)

// TimerEvent reports a response countdown transition. Key changes on
// every arming so viewers can restart their countdown animation.
type TimerEvent struct {
	Active   bool          `json:"active"`
	Duration time.Duration `json:"duration"`
	Key      int           `json:"key"`
}

// StoryService is the conversation state machine. It reconciles
// interleaved transcription fragments into discrete turns, tracks who is
// speaking, arms the response countdown after questions, and requests
// illustrations for finished narration.
//
// Fragments within one role lane arrive in order from the live session's
// receive loop; the internal mutex serializes them against timer expiry
// and story-boundary calls from other goroutines.
type StoryService struct {
	log         *entities.ConversationLog
	speaking    *entities.AgentStatus
	timer       *entities.ResponseTimer
	settings    *entities.Settings
	illustrator repositories.Illustrator
	stories     repositories.StoryRepository
	logger      *zap.Logger

	OnTurnUpdate   events.Hook[entities.ConversationTurn]
	OnSpeaking     events.Hook[bool]
	OnTimer        events.Hook[TimerEvent]
	OnIllustration events.Hook[string]

	mu sync.Mutex
}

// NewStoryService creates the state machine around fresh conversation
// state. The illustrator and story repository may be nil; the
// corresponding side effects are then skipped.
func NewStoryService(
	settings *entities.Settings,
	illustrator repositories.Illustrator,
	stories repositories.StoryRepository,
	logger *zap.Logger,
) *StoryService {
	return &StoryService{
		log:         &entities.ConversationLog{},
		speaking:    &entities.AgentStatus{},
		timer:       &entities.ResponseTimer{},
		settings:    settings,
		illustrator: illustrator,
		stories:     stories,
		logger:      logger,
	}
}

// Log exposes the conversation log for read access.
func (s *StoryService) Log() *entities.ConversationLog {
	return s.log
}

// AgentStatus exposes the speaking flag read by the capture boundary.
func (s *StoryService) AgentStatus() *entities.AgentStatus {
	return s.speaking
}

// Timer exposes the response countdown.
func (s *StoryService) Timer() *entities.ResponseTimer {
	return s.timer
}

// HandleInputTranscription consumes one user transcription fragment. Any
// sign of the user speaking disarms an armed response countdown.
func (s *StoryService) HandleInputTranscription(text string, final bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer.Active() {
		s.timer.Cancel()
		s.OnTimer.Emit(TimerEvent{Active: false, Key: s.timer.Key()})
	}
	s.handleFragment(entities.RoleUser, text, final)
}

// HandleOutputTranscription consumes one agent transcription fragment.
func (s *StoryService) HandleOutputTranscription(text string, final bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handleFragment(entities.RoleAgent, text, final)
}

// HandleTurnComplete finalizes the tail turn. A signal with no non-final
// tail is a no-op.
func (s *StoryService) HandleTurnComplete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalizeTail()
}

// handleFragment applies the reconciliation rule: a fragment for role R
// appends to the log's tail turn iff that turn has role R and is not yet
// final; otherwise it opens a new turn. Only the tail is ever mutable.
func (s *StoryService) handleFragment(role entities.Role, text string, final bool) {
	if text != "" {
		tail, ok := s.log.Tail()
		if ok && tail.Role == role && !tail.Final {
			turn, _ := s.log.AmendTail(tail.Text+text, false)
			s.OnTurnUpdate.Emit(turn)
		} else {
			turn := s.log.Append(role, text, false)
			if role == entities.RoleAgent {
				s.speaking.SetSpeaking(true)
				s.OnSpeaking.Emit(true)
			}
			s.OnTurnUpdate.Emit(turn)
		}
	}

	if final {
		if tail, ok := s.log.Tail(); ok && tail.Role == role {
			s.finalizeTail()
		}
	}
}

// finalizeTail marks the tail final and, for a non-empty agent turn,
// runs the completion side effects. Finalization is idempotent so
// duplicate turn-complete signals never duplicate those effects.
func (s *StoryService) finalizeTail() {
	turn, changed := s.log.FinalizeTail()
	if !changed {
		return
	}
	s.OnTurnUpdate.Emit(turn)

	if turn.Role != entities.RoleAgent {
		return
	}

	s.speaking.SetSpeaking(false)
	s.OnSpeaking.Emit(false)

	if turn.Text == "" {
		return
	}

	if s.illustrator != nil {
		go s.illustrate(turn.Text)
	}

	if strings.HasSuffix(strings.TrimSpace(turn.Text), "?") {
		window := s.settings.ResponseWindow()
		s.timer.Arm(window, func() {
			s.mu.Lock()
			s.OnTimer.Emit(TimerEvent{Active: false, Key: s.timer.Key()})
			s.mu.Unlock()
		})
		s.OnTimer.Emit(TimerEvent{Active: true, Duration: window, Key: s.timer.Key()})
	}
}

// illustrate runs the decorative image round trip off the event path. A
// failure costs a picture, never the conversation.
func (s *StoryService) illustrate(storyText string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	url, err := s.illustrator.Illustrate(ctx, storyText, s.settings.Audience())
	if err != nil {
		s.logger.Warn("Failed to generate illustration", zap.Error(err))
		return
	}
	s.OnIllustration.Emit(url)
}

// NewStory archives the current conversation and resets all session
// state. The returned story is nil when there was nothing to keep.
func (s *StoryService) NewStory(ctx context.Context) (*entities.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timer.Cancel()
	s.OnTimer.Emit(TimerEvent{Active: false, Key: s.timer.Key()})
	s.speaking.SetSpeaking(false)
	s.OnSpeaking.Emit(false)

	story := entities.NewStoryFromLog(s.log, s.settings.Audience(), s.settings.StoryLevel())
	s.log.Clear()
	if story == nil {
		return nil, nil
	}

	if s.stories != nil {
		if err := s.stories.Save(ctx, story); err != nil {
			return story, fmt.Errorf("failed to archive story: %w", err)
		}
	}

	s.logger.Info("Story archived",
		zap.String("story_id", story.ID),
		zap.Int("turns", len(story.Turns)))
	return story, nil
}
