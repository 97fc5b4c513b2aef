package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/kahani-labs/kahani/pkg/session"
	"github.com/kahani-labs/kahani/pkg/story"
)

// ConsoleUI is the BubbleTea model that runs the reader UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config        *ConsoleConfig
	client        *http.Client
	session       *session.Session
	sceneViewport viewport.Model
	metaViewport  viewport.Model
	ready         bool
	width         int
	height        int
	err           error
	loading       bool
	statusLine    string

	// Choice selection state
	selectedChoice int

	// Story selection state
	showStoryModal bool
	stories        []*story.Story
	selectedStory  int
	loadingStories bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type storiesLoadedMsg struct {
	stories []*story.Story
	err     error
}

type sessionStartedMsg struct {
	session *session.Session
	err     error
}

type choiceAppliedMsg struct {
	choice *chooseResponse
	err    error
}

type progressTickMsg struct{}

var (
	scenePanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	sceneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	choiceMarkerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	selectedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	sceneVp := viewport.New(50, 20)
	sceneVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:         cfg,
		client:         client,
		sceneViewport:  sceneVp,
		metaViewport:   metaVp,
		ready:          false,
		showStoryModal: true,
		loadingStories: true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadStories()
}

func (m ConsoleUI) loadStories() tea.Cmd {
	return func() tea.Msg {
		stories, err := listStories(m.client, m.config.APIBaseURL)
		return storiesLoadedMsg{stories, err}
	}
}

func (m ConsoleUI) startSelectedStory(storyID string) tea.Cmd {
	return func() tea.Msg {
		sess, err := startSession(m.client, m.config.APIBaseURL, storyID)
		return sessionStartedMsg{sess, err}
	}
}

func (m ConsoleUI) applyChoice(choiceID string) tea.Cmd {
	sessionID := m.session.ID
	version := m.session.Version
	return func() tea.Msg {
		choice, err := sendChoice(m.client, m.config.APIBaseURL, sessionID, choiceID, version)
		return choiceAppliedMsg{choice, err}
	}
}

func (m ConsoleUI) restart() tea.Cmd {
	sessionID := m.session.ID
	return func() tea.Msg {
		sess, err := restartSession(m.client, m.config.APIBaseURL, sessionID)
		return sessionStartedMsg{sess, err}
	}
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

func (m *ConsoleUI) resize() {
	sceneWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - sceneWidth - 6

	m.sceneViewport.Width = sceneWidth - 2
	m.sceneViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
}

// writeSceneContent rebuilds the scene log and choice list for the
// current viewport width.
func (m *ConsoleUI) writeSceneContent() {
	sceneWidth := m.sceneViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("KAHANI") + "\n\n")
	content.WriteString("An interactive storytelling reader.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(sceneWidth-6, 10))) + "\n\n")

	if m.session != nil {
		for _, entry := range m.session.History {
			if strings.HasPrefix(entry, "Choice: ") {
				content.WriteString(choiceMarkerStyle.Render("You chose: ") +
					wordwrap.String(strings.TrimPrefix(entry, "Choice: "), sceneWidth-11) + "\n\n")
				continue
			}
			content.WriteString(sceneStyle.Render(wordwrap.String(entry, sceneWidth)) + "\n\n")
		}

		if len(m.session.CurrentChoices) > 0 && !m.loading {
			content.WriteString(separatorStyle.Render(strings.Repeat("─", max(sceneWidth-6, 10))) + "\n\n")
			content.WriteString(titleStyle.Render("What happens next?") + "\n\n")
			for i, c := range m.session.CurrentChoices {
				line := fmt.Sprintf("%d. %s", i+1, c.Text)
				if i == m.selectedChoice {
					content.WriteString(selectedChoiceStyle.Render("▶ "+line) + "\n")
				} else {
					content.WriteString(choiceStyle.Render("  "+line) + "\n")
				}
			}
		} else if !m.loading {
			content.WriteString(promptStyle.Render("The story has no further branches. Press r to restart.") + "\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	if m.err != nil {
		content.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	m.sceneViewport.SetContent(content.String())
	m.sceneViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() {
	if m.session == nil {
		return
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	content.WriteString("Session ID:\n")
	id := m.session.ID
	if len(id) > 8 {
		id = id[:8] + "..."
	}
	content.WriteString(id + "\n\n")

	content.WriteString("Language:\n")
	content.WriteString(m.session.Language.DisplayName() + "\n\n")

	content.WriteString("Scenes:\n")
	content.WriteString(fmt.Sprintf("%d in history\n\n", len(m.session.History)))

	content.WriteString("Version:\n")
	content.WriteString(fmt.Sprintf("%d\n\n", m.session.Version))

	content.WriteString("Commands:\n")
	content.WriteString("• ↑/↓: Select choice\n")
	content.WriteString("• Enter or 1-9: Choose\n")
	content.WriteString("• r: Restart story\n")
	content.WriteString("• c: Copy session ID\n")
	content.WriteString("• Ctrl+C: Quit\n")

	if m.statusLine != "" {
		content.WriteString("\n" + loadingStyle.Render(m.statusLine) + "\n")
	}

	m.metaViewport.SetContent(content.String())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showStoryModal {
		return m.updateStoryModal(msg)
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.sceneViewport, vpCmd = m.sceneViewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeSceneContent()
		m.writeMetadata()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case choiceAppliedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.session.CurrentScene = msg.choice.CurrentScene
			m.session.CurrentChoices = msg.choice.Choices
			m.session.Version = msg.choice.Version
			m.session.History = append(m.session.History,
				"Choice: "+msg.choice.PreviousChoice, msg.choice.CurrentScene)
			m.selectedChoice = 0
		}
		m.writeSceneContent()
		m.writeMetadata()

	case sessionStartedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.session = msg.session
			m.selectedChoice = 0
			m.statusLine = ""
		}
		m.writeSceneContent()
		m.writeMetadata()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeSceneContent()
			return m, progressTick()
		}
	}

	m.sceneViewport, vpCmd = m.sceneViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.showQuitModal = true
		return m, nil

	case tea.KeyUp:
		if m.selectedChoice > 0 {
			m.selectedChoice--
			m.writeSceneContent()
		}
		return m, nil

	case tea.KeyDown:
		if m.session != nil && m.selectedChoice < len(m.session.CurrentChoices)-1 {
			m.selectedChoice++
			m.writeSceneContent()
		}
		return m, nil

	case tea.KeyEnter:
		if m.loading || m.session == nil || len(m.session.CurrentChoices) == 0 {
			return m, nil
		}
		choice := m.session.CurrentChoices[m.selectedChoice]
		m.loading = true
		m.progressTick = 0
		m.writeSceneContent()
		return m, tea.Batch(m.applyChoice(choice.ID), progressTick())
	}

	switch msg.String() {
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if m.loading || m.session == nil {
			return m, nil
		}
		idx := int(msg.String()[0] - '1')
		if idx >= len(m.session.CurrentChoices) {
			return m, nil
		}
		m.selectedChoice = idx
		choice := m.session.CurrentChoices[idx]
		m.loading = true
		m.progressTick = 0
		m.writeSceneContent()
		return m, tea.Batch(m.applyChoice(choice.ID), progressTick())

	case "r":
		if m.loading || m.session == nil {
			return m, nil
		}
		m.loading = true
		m.progressTick = 0
		m.writeSceneContent()
		return m, tea.Batch(m.restart(), progressTick())

	case "c":
		if m.session != nil {
			if err := clipboard.WriteAll(m.session.ID); err != nil {
				m.statusLine = "Copy failed"
			} else {
				m.statusLine = "Session ID copied"
			}
			m.writeMetadata()
		}
		return m, nil
	}

	return m, nil
}

func (m ConsoleUI) updateStoryModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case storiesLoadedMsg:
		m.loadingStories = false
		if msg.err != nil {
			m.err = msg.err
		} else if len(msg.stories) == 0 {
			m.err = fmt.Errorf("no stories available; create one via the API first")
		} else {
			m.stories = msg.stories
		}

	case sessionStartedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.session = msg.session
			m.showStoryModal = false
			if m.width > 0 && m.height > 0 {
				m.resize()
			}
			m.writeSceneContent()
			m.writeMetadata()
			m.ready = true
		}
		return m, nil

	case tea.KeyMsg:
		if m.loadingStories || m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedStory > 0 {
				m.selectedStory--
			}
		case tea.KeyDown:
			if m.selectedStory < len(m.stories)-1 {
				m.selectedStory++
			}
		case tea.KeyEnter:
			if len(m.stories) > 0 {
				m.loading = true
				return m, m.startSelectedStory(m.stories[m.selectedStory].ID)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			m.endCurrentSession()
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				m.endCurrentSession()
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}

	return m, nil
}

// endCurrentSession best-effort deletes the session on quit.
func (m *ConsoleUI) endCurrentSession() {
	if m.session == nil {
		return
	}
	_ = endSession(m.client, m.config.APIBaseURL, m.session.ID)
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the story?"))
	content.WriteString("\n\n")
	content.WriteString("Your session will be ended.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to keep reading"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderStoryModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingStories {
		content.WriteString(modalTitleStyle.Render("Loading Stories..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Fetching the story library..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(m.err.Error()))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Opening Story..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting the scene..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Story"))
		content.WriteString("\n\n")

		for i, s := range m.stories {
			label := fmt.Sprintf("%s (%s, %s)", s.Title, s.Culture, s.Language.DisplayName())
			if i == m.selectedStory {
				content.WriteString(selectedChoiceStyle.Render("▶ " + label))
			} else {
				content.WriteString(choiceStyle.Render("  " + label))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showStoryModal {
		return m.renderStoryModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	sceneWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - sceneWidth - 6

	scenePanel := scenePanelStyle.Width(sceneWidth).Height(m.height - 3).Render(
		m.sceneViewport.View(),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, scenePanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.sceneViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}
