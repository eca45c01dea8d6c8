package widget

import "support-chat-backend/internal/dto"

type Screen string

const (
	ScreenError     Screen = "error"
	ScreenLoading   Screen = "loading"
	ScreenAuth      Screen = "auth"
	ScreenSelection Screen = "selection"
	ScreenChat      Screen = "chat"
	ScreenVoice     Screen = "voice"
	ScreenInbox     Screen = "inbox"
	ScreenContact   Screen = "contact"
)

type Stage string

const (
	StageOrg      Stage = "org"
	StageSession  Stage = "session"
	StageSettings Stage = "settings"
	StageVapi     Stage = "vapi"
	StageDone     Stage = "done"
)

type VoiceSecrets struct {
	PublicAPIKey string `json:"publicApiKey"`
}

// State is everything the widget knows while it boots. It is only changed through Reduce.
type State struct {
	Stage            Stage                       `json:"stage"`
	Screen           Screen                      `json:"screen"`
	OrganizationID   string                      `json:"organizationId,omitempty"`
	ContactSessionID string                      `json:"contactSessionId,omitempty"`
	SessionValid     bool                        `json:"sessionValid"`
	LoadingMessage   string                      `json:"loadingMessage,omitempty"`
	ErrorMessage     string                      `json:"errorMessage,omitempty"`
	Settings         *dto.WidgetSettingsResponse `json:"settings"`
	VapiSecrets      *VoiceSecrets               `json:"vapiSecrets"`
}

func NewState() State {
	return State{Stage: StageOrg, Screen: ScreenLoading}
}

func (s State) HasVapiSecrets() bool {
	return s.VapiSecrets != nil && s.VapiSecrets.PublicAPIKey != ""
}

func (s State) Failed() bool {
	return s.Screen == ScreenError
}

type Action interface {
	action()
}

type SetLoadingMessage struct {
	Message string
}

type Fail struct {
	Message string
}

type OrganizationVerified struct {
	OrganizationID string
}

type SessionChecked struct {
	ContactSessionID string
	Valid            bool
}

type SettingsLoaded struct {
	Settings *dto.WidgetSettingsResponse
}

type VoiceSecretsLoaded struct {
	Secrets *VoiceSecrets
}

type Finish struct{}

// Navigate moves between screens once the bootstrap has finished.
type Navigate struct {
	Screen Screen
}

// SessionStarted records a contact session created from the auth screen.
type SessionStarted struct {
	ContactSessionID string
}

func (SetLoadingMessage) action()    {}
func (Fail) action()                 {}
func (OrganizationVerified) action() {}
func (SessionChecked) action()       {}
func (SettingsLoaded) action()       {}
func (VoiceSecretsLoaded) action()   {}
func (Finish) action()               {}
func (Navigate) action()             {}
func (SessionStarted) action()       {}

// Reduce applies a to s. Stage actions arriving out of order are ignored, and a failed state stays failed.
func Reduce(s State, a Action) State {
	if s.Failed() {
		return s
	}

	switch a := a.(type) {
	case SetLoadingMessage:
		s.LoadingMessage = a.Message

	case Fail:
		s.Screen = ScreenError
		s.ErrorMessage = a.Message
		s.LoadingMessage = ""

	case OrganizationVerified:
		if s.Stage != StageOrg {
			return s
		}
		s.OrganizationID = a.OrganizationID
		s.Stage = StageSession

	case SessionChecked:
		if s.Stage != StageSession {
			return s
		}
		s.ContactSessionID = a.ContactSessionID
		s.SessionValid = a.Valid
		s.Stage = StageSettings

	case SettingsLoaded:
		if s.Stage != StageSettings {
			return s
		}
		s.Settings = a.Settings
		s.Stage = StageVapi

	case VoiceSecretsLoaded:
		if s.Stage != StageVapi {
			return s
		}
		s.VapiSecrets = a.Secrets
		s.Stage = StageDone

	case Finish:
		if s.Stage != StageDone || s.Screen != ScreenLoading {
			return s
		}
		s.LoadingMessage = ""
		if s.ContactSessionID != "" && s.SessionValid {
			s.Screen = ScreenSelection
		} else {
			s.Screen = ScreenAuth
		}

	case SessionStarted:
		if s.Stage != StageDone {
			return s
		}
		s.ContactSessionID = a.ContactSessionID
		s.SessionValid = true
		if s.Screen == ScreenAuth {
			s.Screen = ScreenSelection
		}

	case Navigate:
		if s.Stage != StageDone || s.Screen == ScreenLoading {
			return s
		}
		if a.Screen == ScreenLoading || a.Screen == ScreenError {
			return s
		}
		if a.Screen == ScreenVoice && !s.HasVapiSecrets() {
			return s
		}
		if a.Screen != ScreenAuth && !s.SessionValid {
			return s
		}
		s.Screen = a.Screen
	}
	return s
}
