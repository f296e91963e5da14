package learning

import "time"

// Action names one independently triggerable operation of the screen
type Action string

const (
	ActionRegister       Action = "register"
	ActionLoadVocabulary Action = "load_vocabulary"
	ActionAddText        Action = "add_text"
	ActionAddImage       Action = "add_image"
	ActionAddAudio       Action = "add_audio"
	ActionImport         Action = "import"
	ActionQuestion       Action = "question"
	ActionAnswer         Action = "answer"
	ActionConjugation    Action = "conjugation"
)

// Actions lists every action in display order
var Actions = []Action{
	ActionRegister,
	ActionLoadVocabulary,
	ActionAddText,
	ActionAddImage,
	ActionAddAudio,
	ActionImport,
	ActionQuestion,
	ActionAnswer,
	ActionConjugation,
}

// Status is the lifecycle state of an action's last run
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Result is the outcome slot of a single action. Every action owns one,
// so overlapping actions never overwrite each other's message.
type Result struct {
	Status    Status
	Message   string
	Err       error
	UpdatedAt time.Time
}

func (r Result) Pending() bool   { return r.Status == StatusPending }
func (r Result) Failed() bool    { return r.Status == StatusFailed }
func (r Result) Succeeded() bool { return r.Status == StatusSucceeded }

var failureMessages = map[Action]string{
	ActionRegister:       "Failed to create user",
	ActionLoadVocabulary: "Failed to load vocabulary",
	ActionAddText:        "Failed to add word",
	ActionAddImage:       "Failed to process image",
	ActionAddAudio:       "Failed to process audio",
	ActionImport:         "Failed to import words",
	ActionQuestion:       "Failed to get question",
	ActionAnswer:         "Failed to submit answer",
	ActionConjugation:    "Failed to load conjugation",
}

var successMessages = map[Action]string{
	ActionRegister: "User created successfully!",
	ActionAddText:  "Word added successfully!",
	ActionAddImage: "Word extracted from image and added!",
	ActionAddAudio: "Word extracted from audio and added!",
}

const (
	msgEnterUsername  = "Please enter a username"
	msgChooseLanguage = "Please choose English or Ukrainian"
	msgFillAllFields  = "Please fill in all fields"
	msgChooseWordType = "Please choose a valid word type"
	msgChooseFile     = "Please choose a file"
	msgEnterAnswer    = "Please enter an answer"
	msgAddWordsFirst  = "Add words first!"
)
