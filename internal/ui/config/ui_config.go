package ui_config

type Config struct { //nolint:maligned
	// Splash page hold time. 0 = default, negative = no hold.
	SplashDwellMs int `hcl:"splash_dwell_ms"`
	// Command receive timeout. 0 = block until command.
	PollSec         int `hcl:"poll_sec"`
	CommandQueue    int `hcl:"command_queue"`
	PeripheralQueue int `hcl:"peripheral_queue"`

	Text Text `hcl:"text"`
}

type Text struct {
	Splash       []string `hcl:"splash"`
	Title        string   `hcl:"title"`
	LedOn        string   `hcl:"led_on"`
	LedOff       string   `hcl:"led_off"`
	Brightness   string   `hcl:"brightness"`
	Instructions []string `hcl:"instructions"`
}

const (
	DefaultSplashDwellMs   = 2000
	DefaultCommandQueue    = 8
	DefaultPeripheralQueue = 4
)

func (t *Text) SetDefaults() {
	if len(t.Splash) == 0 {
		t.Splash = []string{"CYPRESS", "EMWIN GRAPHICS", "EINK DISPLAY DEMO"}
	}
	if t.Title == "" {
		t.Title = "LED"
	}
	if t.LedOn == "" {
		t.LedOn = "ON"
	}
	if t.LedOff == "" {
		t.LedOff = "OFF"
	}
	if t.Brightness == "" {
		t.Brightness = "BRIGHTNESS"
	}
	if len(t.Instructions) == 0 {
		t.Instructions = []string{"Move your finger on the slider", "to adjust ", "LED brightness!"}
	}
}
