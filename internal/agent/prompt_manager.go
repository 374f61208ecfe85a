package agent

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/treadly55/weekend-away-event-finder/internal/tools"
)

// DefaultSystemPrompt is used when no prompts directory is configured. The
// tools section is appended from the registry by SystemPromptFor.
const DefaultSystemPrompt = `You are "Weekend Away", an assistant that recommends weather-appropriate events.
You are given a 'city', an 'eventKey' (for example "date:today") and a 'weatherDate' (YYYY-MM-DD).
Follow these steps exactly.

Step 1. Your very first reply MUST be a getEvents action using the provided city and the exact eventKey:
Action: getEvents: {"city": "THE_PROVIDED_CITY", "eventKey": "THE_PROVIDED_EVENT_KEY"}
PAUSE

Step 2. After the 'Observation:' with event data, your next reply MUST be a getWeather action using the provided city and weatherDate:
Action: getWeather: {"city": "THE_PROVIDED_CITY", "date": "THE_PROVIDED_WEATHER_DATE"}
PAUSE

Step 3. After the 'Observation:' with weather data, read the name, description and link of every event and choose the three most exciting events that suit the forecast.
Sunny or warm days favour outdoor festivals, markets and beaches. Rain or cold favours museums, theatres and covered venues.

Step 4. Reply with ONLY the recommendation, without "Thought:", "Action:" or "Observation:", in this HTML format:
<p>For [city], with [forecast] expected [today or tomorrow], here are three exciting activities suited to the conditions:</p>
<h3>[Event title]</h3>
<p>[30-50 word description tying the event to the weather]</p>
<a href="[event link]" target="_blank">Learn more & book</a>

Write every word in full without abbreviations and do not capitalise the words today or tomorrow.`

// PromptManager assembles the system prompt from markdown fragments.
type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

// GetSystemPrompt concatenates every .md file in the directory, ordered
// system, tools, format, restrictions, then alphabetically.
func (pm *PromptManager) GetSystemPrompt() (string, error) {
	if pm == nil || pm.Directory == "" {
		return DefaultSystemPrompt, nil
	}

	files, err := os.ReadDir(pm.Directory)
	if err != nil {
		return "", fmt.Errorf("failed to read prompts directory: %v", err)
	}

	order := map[string]int{
		"system.md":       1,
		"tools.md":        2,
		"format.md":       3,
		"restrictions.md": 4,
	}

	sort.Slice(files, func(i, j int) bool {
		oi, okI := order[files[i].Name()]
		oj, okJ := order[files[j].Name()]
		if okI && okJ {
			return oi < oj
		}
		if okI {
			return true
		}
		if okJ {
			return false
		}
		return files[i].Name() < files[j].Name()
	})

	var contents []string
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") {
			continue
		}
		path := filepath.Join(pm.Directory, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: Failed to read prompt file %s: %v", path, err)
			continue
		}
		contents = append(contents, strings.TrimSpace(string(data)))
	}

	if len(contents) == 0 {
		return "", fmt.Errorf("no prompt files found in %s", pm.Directory)
	}

	return strings.Join(contents, "\n\n"), nil
}

// SystemPromptFor returns the prompt for a session over registry. Without a
// prompts directory that is the built-in prompt plus a generated tools
// section; a directory is expected to describe the tools itself.
func (pm *PromptManager) SystemPromptFor(registry *tools.Registry) (string, error) {
	if pm == nil || pm.Directory == "" {
		return BuiltinPrompt(registry), nil
	}
	return pm.GetSystemPrompt()
}

// BuiltinPrompt is DefaultSystemPrompt followed by DescribeTools.
func BuiltinPrompt(registry *tools.Registry) string {
	return DefaultSystemPrompt + "\n\n" + DescribeTools(registry)
}

// DescribeTools lists every registered tool with its description and
// required arguments.
func DescribeTools(registry *tools.Registry) string {
	if registry == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("Available tools:")
	for i, name := range registry.Names() {
		t := registry.Get(name)
		args := make([]string, 0, len(t.RequiredArgs()))
		for _, a := range t.RequiredArgs() {
			args = append(args, fmt.Sprintf("%q: \"...\"", a))
		}
		fmt.Fprintf(&b, "\n%d. %s: %s Arguments: {%s}.", i+1, name, t.Description(), strings.Join(args, ", "))
	}
	return b.String()
}

// BuildUserQuery is the seed user message for one session.
func BuildUserQuery(city, eventKey, weatherDate string) string {
	return fmt.Sprintf("Fetch events for city '%s' using event key '%s'. Then, fetch the weather for '%s' on '%s'. "+
		"Finally, recommend the top three most exciting events suitable for the weather. "+
		"Follow the system prompt's formatting instructions precisely for the final output.",
		city, eventKey, city, weatherDate)
}
