// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/monadic/intel-scout/internal/panellog"
	"github.com/monadic/intel-scout/pkg/bridge"
	"github.com/monadic/intel-scout/pkg/correlate"
	"github.com/monadic/intel-scout/pkg/pagescan"
	"github.com/monadic/intel-scout/pkg/panel"
	"github.com/monadic/intel-scout/pkg/platform"
)

const (
	// scanTimeout bounds one full page scan across every platform.
	scanTimeout = 30 * time.Second
	// bridgeTimeout bounds one platform call issued from the panel.
	bridgeTimeout = 15 * time.Second
)

var (
	panelConfigPath string
	panelPageURL    string
	panelDictPath   string
)

var panelCmd = &cobra.Command{
	Use:   "panel [file]",
	Short: "Open the interactive panel on a page",
	Long: `Open the interactive panel on a page.

The page text comes from the file argument or stdin. It is scanned for
observables, vulnerabilities, and ATT&CK techniques, each hit is looked up
on every configured platform, and the merged results open in the panel.

From the results you can open entities, page through their per-platform
records, create containers and investigations on an intel platform, build
scenarios and run atomic tests on a simulation platform, search all
platforms at once, and import unknown entities as new observables.

Examples:
  # Scan a saved page and open the panel
  intel-scout panel advisory.txt --url https://example.com/advisory

  # Pipe page text in
  curl -s https://example.com/advisory | intel-scout panel

  # Use a custom technique dictionary
  intel-scout panel advisory.txt --dictionary techniques.yaml
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPanel,
}

func init() {
	rootCmd.AddCommand(panelCmd)

	panelCmd.Flags().StringVar(&panelConfigPath, "config", "", "Platform config file (overrides INTEL_SCOUT_CONFIG)")
	panelCmd.Flags().StringVar(&panelPageURL, "url", "", "URL of the page being scanned, used for container lookups")
	panelCmd.Flags().StringVar(&panelDictPath, "dictionary", "", "Technique dictionary YAML (default: built-in ATT&CK subset)")
}

func runPanel(cmd *cobra.Command, args []string) error {
	text, err := readPageText(args)
	if err != nil {
		return err
	}

	snap, err := loadSnapshot(panelConfigPath)
	if err != nil {
		return err
	}

	dict := pagescan.NewDictionary(pagescan.DefaultTechniques())
	if panelDictPath != "" {
		dict, err = pagescan.LoadDictionary(panelDictPath)
		if err != nil {
			return err
		}
	}

	logSession, err := panellog.Open("panel")
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	logger := logSession.Logger()

	caller := bridge.NewHTTPCaller(snap)
	scanner := pagescan.NewScanner(caller, snap, dict, logger)

	m := newPanelModel(snap, caller, scanner, logger, text, panelPageURL)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logSession.Close()
		return fmt.Errorf("panel: %w", err)
	}

	if path := logSession.Close(); path != "" {
		fmt.Printf("session log: %s\n", path)
	}
	return nil
}

// PanelModel drives the interactive panel. Every state transition runs
// through the machine; the model itself holds only UI chrome: cursors, text
// entry buffers, the notification line, and the widgets.
type PanelModel struct {
	machine *panel.Machine
	caller  bridge.Caller
	scanner *pagescan.Scanner
	logger  *slog.Logger

	// Page under scan
	pageText string
	pageURL  string

	// Terminal state
	width  int
	height int
	ready  bool

	// Widgets
	spinner spinner.Model
	detail  viewport.Model
	keymap  panelKeyMap

	// Help overlay (UI concern, not a machine mode)
	helpMode bool

	// A page scan is in flight
	scanning bool

	// List cursors
	cursor         int // scan results and import rows
	platformCursor int // platform choice lists
	typeCursor     int // container type picker
	assetCursor    int // atomic testing asset picker

	// Text entry
	formFocus   int // 0 name, 1 description
	formName    string
	formDesc    string
	searchInput string

	// Import selection by group key; empty means all missing rows
	importPicks map[string]bool

	// Last notification line
	notification string
	notifyLevel  panel.NotifyLevel

	quitting bool
}

type panelKeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Prev        key.Binding
	Next        key.Binding
	Enter       key.Binding
	Back        key.Binding
	Quit        key.Binding
	Help        key.Binding
	Rescan      key.Binding
	Search      key.Binding
	Container   key.Binding
	Investigate key.Binding
	Scenario    key.Binding
	Atomic      key.Binding
	Add         key.Binding
	Preview     key.Binding
	FoundFilter key.Binding
	TypeFilter  key.Binding
}

func defaultPanelKeyMap() panelKeyMap {
	return panelKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous platform"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next platform"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan page"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search all platforms"),
		),
		Container: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "create container"),
		),
		Investigate: key.NewBinding(
			key.WithKeys("I"),
			key.WithHelp("I", "investigation"),
		),
		Scenario: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "scenario"),
		),
		Atomic: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "atomic test"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add missing entities"),
		),
		Preview: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "preview row"),
		),
		FoundFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "cycle found filter"),
		),
		TypeFilter: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "cycle type filter"),
		),
	}
}

// scanDoneMsg delivers a finished page scan.
type scanDoneMsg struct {
	batch correlate.Batch
}

// panelEventMsg feeds one completion event back into the machine.
type panelEventMsg struct {
	ev panel.Event
}

func newPanelModel(snap *platform.Snapshot, caller bridge.Caller, scanner *pagescan.Scanner, logger *slog.Logger, pageText, pageURL string) PanelModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	vp := viewport.New(40, 20)
	vp.MouseWheelEnabled = true

	return PanelModel{
		machine:     panel.NewMachine(panel.NewSession(snap), logger),
		caller:      caller,
		scanner:     scanner,
		logger:      logger,
		pageText:    pageText,
		pageURL:     pageURL,
		spinner:     s,
		detail:      vp,
		keymap:      defaultPanelKeyMap(),
		scanning:    true,
		importPicks: make(map[string]bool),
	}
}

func (m PanelModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.scanPageCmd()}
	cmds = append(cmds, m.probePlatforms()...)
	return tea.Batch(cmds...)
}

func (m PanelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = msg.Width - 4
		if m.detail.Width < 20 {
			m.detail.Width = 20
		}
		m.detail.Height = msg.Height - 10
		if m.detail.Height < 5 {
			m.detail.Height = 5
		}
		m.ready = true
		m.refreshDetail()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case scanDoneMsg:
		m.scanning = false
		cmd := m.feed(panel.ShowScanResults{Batch: msg.batch})
		return m, cmd

	case panelEventMsg:
		cmd := m.feed(msg.ev)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// feed routes one event through the machine and turns the returned effects
// into commands. Notifications and rescans are handled on the model; every
// other effect becomes a platform call whose completion re-enters as a
// panelEventMsg.
func (m *PanelModel) feed(ev panel.Event) tea.Cmd {
	effects := m.machine.Handle(ev)
	var cmds []tea.Cmd
	for _, ef := range effects {
		switch ef := ef.(type) {
		case panel.Notify:
			m.notification = ef.Message
			m.notifyLevel = ef.Level
		case panel.TriggerRescan:
			m.scanning = true
			cmds = append(cmds, m.scanPageCmd())
		default:
			if c := m.effectCmd(ef); c != nil {
				cmds = append(cmds, c)
			}
		}
	}
	m.clampCursors()
	m.refreshDetail()
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m PanelModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Help overlay swallows the next key.
	if m.helpMode {
		m.helpMode = false
		return m, nil
	}

	mode := m.machine.Session().Mode()

	// Text-entry modes consume rune keys before global bindings fire.
	if mode == panel.ModeUnifiedSearch {
		return m.handleSearchKey(msg)
	}
	if mode == panel.ModeContainerForm || mode == panel.ModeScenarioForm || mode == panel.ModeInvestigation {
		return m.handleFormKey(msg)
	}

	m.notification = ""

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.helpMode = true
		return m, nil

	case key.Matches(msg, m.keymap.Back):
		m.resetEntry()
		return m, m.feed(panel.Back{})

	case key.Matches(msg, m.keymap.Rescan):
		return m, m.feed(panel.Rescan{})

	case key.Matches(msg, m.keymap.Search):
		m.searchInput = ""
		return m, m.feed(panel.ShowUnifiedSearch{})

	case key.Matches(msg, m.keymap.Container):
		m.resetEntry()
		return m, m.feed(panel.ShowCreateContainer{PageURL: m.pageURL})

	case key.Matches(msg, m.keymap.Investigate):
		m.resetEntry()
		return m, m.feed(panel.ShowInvestigation{})

	case key.Matches(msg, m.keymap.Scenario):
		m.resetEntry()
		return m, m.feed(panel.ShowScenario{AttackPatterns: m.attackPatternNames()})

	case key.Matches(msg, m.keymap.Atomic):
		pattern := m.currentAttackPattern()
		if pattern == "" {
			m.notification = "no attack pattern detected on this page"
			m.notifyLevel = panel.NotifyWarn
			return m, nil
		}
		m.resetEntry()
		return m, m.feed(panel.ShowAtomicTesting{AttackPattern: pattern})

	case key.Matches(msg, m.keymap.Add):
		m.resetEntry()
		return m, m.feed(panel.ShowAddEntity{})

	case key.Matches(msg, m.keymap.Preview):
		if mode == panel.ModeScanResults {
			if e, ok := m.entityUnderCursor(); ok {
				return m, m.feed(panel.ShowPreview{GroupKey: e.GroupKey})
			}
		}
		return m, nil

	case key.Matches(msg, m.keymap.FoundFilter):
		if mode == panel.ModeScanResults {
			cmd := m.feed(panel.CycleFoundFilter{})
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keymap.TypeFilter):
		if mode == panel.ModeScanResults {
			return m, m.feed(panel.SetTypeFilter{EntityType: m.nextTypeFilter()})
		}
		return m, nil

	case key.Matches(msg, m.keymap.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keymap.Prev):
		if mode == panel.ModeEntity || mode == panel.ModeLoading {
			return m, m.feed(panel.PrevPlatform{})
		}
		return m, nil

	case key.Matches(msg, m.keymap.Next):
		if mode == panel.ModeEntity || mode == panel.ModeLoading {
			return m, m.feed(panel.NextPlatform{})
		}
		return m, nil

	case msg.String() == " ":
		if mode == panel.ModeAdd {
			m.toggleImportPick()
		}
		return m, nil

	case key.Matches(msg, m.keymap.Enter):
		return m.handleEnter()
	}

	return m, nil
}

func (m PanelModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.searchInput = ""
		return m, m.feed(panel.Back{})
	case "enter":
		return m, m.feed(panel.SubmitSearch{Text: m.searchInput})
	case "backspace":
		if len(m.searchInput) > 0 {
			m.searchInput = m.searchInput[:len(m.searchInput)-1]
		}
		return m, nil
	}
	if msg.Type == tea.KeyRunes {
		m.searchInput += string(msg.Runes)
	}
	return m, nil
}

func (m PanelModel) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.resetEntry()
		return m, m.feed(panel.Back{})
	case "tab", "down":
		m.formFocus = (m.formFocus + 1) % 2
		return m, nil
	case "shift+tab", "up":
		m.formFocus = (m.formFocus + 1) % 2
		return m, nil
	case "enter":
		return m.submitForm()
	case "backspace":
		if m.formFocus == 0 && len(m.formName) > 0 {
			m.formName = m.formName[:len(m.formName)-1]
		} else if m.formFocus == 1 && len(m.formDesc) > 0 {
			m.formDesc = m.formDesc[:len(m.formDesc)-1]
		}
		return m, nil
	}
	if msg.Type == tea.KeyRunes {
		if m.formFocus == 0 {
			m.formName += string(msg.Runes)
		} else {
			m.formDesc += string(msg.Runes)
		}
	}
	return m, nil
}

func (m PanelModel) submitForm() (tea.Model, tea.Cmd) {
	switch m.machine.Session().Mode() {
	case panel.ModeContainerForm:
		return m, m.feed(panel.SubmitContainer{Name: m.formName, Description: m.formDesc})
	case panel.ModeScenarioForm:
		return m, m.feed(panel.SubmitScenario{Name: m.formName, Description: m.formDesc})
	case panel.ModeInvestigation:
		return m, m.feed(panel.SubmitInvestigation{Name: m.formName})
	}
	return m, nil
}

func (m PanelModel) handleEnter() (tea.Model, tea.Cmd) {
	s := m.machine.Session()
	switch s.Mode() {
	case panel.ModeScanResults:
		if e, ok := m.entityUnderCursor(); ok {
			return m, m.feed(panel.SelectEntity{GroupKey: e.GroupKey})
		}
		return m, nil

	case panel.ModePlatformSelect, panel.ModeAddSelection:
		choices := m.selectablePlatforms()
		if m.platformCursor < len(choices) {
			return m, m.feed(panel.SelectPlatform{PlatformID: choices[m.platformCursor].ID})
		}
		return m, nil

	case panel.ModeContainerType:
		choices := m.containerTypeChoices()
		if m.typeCursor < len(choices) {
			m.formName, m.formDesc, m.formFocus = "", "", 0
			return m, m.feed(panel.SelectContainerType{ContainerType: choices[m.typeCursor]})
		}
		return m, nil

	case panel.ModeScenarioOverview:
		m.formName, m.formDesc, m.formFocus = "", "", 0
		return m, m.feed(panel.OpenScenarioForm{})

	case panel.ModeAtomicTesting:
		assets := s.Sim().Assets
		if m.assetCursor < len(assets) {
			return m, m.feed(panel.LaunchAtomic{AssetID: assets[m.assetCursor].ID()})
		}
		return m, m.feed(panel.LaunchAtomic{})

	case panel.ModeAdd:
		var keys []string
		for k, on := range m.importPicks {
			if on {
				keys = append(keys, k)
			}
		}
		return m, m.feed(panel.SubmitImport{GroupKeys: keys})

	case panel.ModePreview, panel.ModeNotFound, panel.ModeImportResults, panel.ModeExistingContainers, panel.ModeUnavailable, panel.ModeError:
		m.resetEntry()
		return m, m.feed(panel.Back{})
	}
	return m, nil
}

// moveCursor shifts whichever list cursor the current mode uses, clamped to
// its list. The entity detail pane scrolls instead of a cursor.
func (m *PanelModel) moveCursor(delta int) {
	s := m.machine.Session()
	switch s.Mode() {
	case panel.ModeScanResults, panel.ModeAdd:
		m.cursor = clamp(m.cursor+delta, m.cursorRows())
	case panel.ModePlatformSelect, panel.ModeAddSelection:
		m.platformCursor = clamp(m.platformCursor+delta, len(m.selectablePlatforms()))
	case panel.ModeContainerType:
		m.typeCursor = clamp(m.typeCursor+delta, len(m.containerTypeChoices()))
	case panel.ModeAtomicTesting:
		m.assetCursor = clamp(m.assetCursor+delta, len(s.Sim().Assets))
	case panel.ModeEntity, panel.ModePreview, panel.ModeUnifiedSearch, panel.ModeExistingContainers:
		if delta < 0 {
			m.detail.LineUp(1)
		} else {
			m.detail.LineDown(1)
		}
	}
}

func clamp(v, n int) int {
	if n == 0 {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > n-1 {
		return n - 1
	}
	return v
}

// cursorRows returns the row count behind m.cursor for the current mode.
func (m *PanelModel) cursorRows() int {
	s := m.machine.Session()
	if s.Mode() == panel.ModeAdd {
		return len(m.importCandidates())
	}
	return len(s.Entities())
}

func (m *PanelModel) clampCursors() {
	m.cursor = clamp(m.cursor, m.cursorRows())
	m.platformCursor = clamp(m.platformCursor, len(m.selectablePlatforms()))
	m.typeCursor = clamp(m.typeCursor, len(m.containerTypeChoices()))
	m.assetCursor = clamp(m.assetCursor, len(m.machine.Session().Sim().Assets))
}

// resetEntry clears cursors, form buffers, and the import selection when a
// flow is left or a new one starts.
func (m *PanelModel) resetEntry() {
	m.platformCursor = 0
	m.typeCursor = 0
	m.assetCursor = 0
	m.formFocus = 0
	m.formName = ""
	m.formDesc = ""
	m.searchInput = ""
	m.importPicks = make(map[string]bool)
}

func (m PanelModel) entityUnderCursor() (*correlate.CorrelatedEntity, bool) {
	rows := m.machine.Session().Entities()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil, false
	}
	return rows[m.cursor], true
}

// importCandidates returns the not-found rows the add flow can push.
func (m PanelModel) importCandidates() []*correlate.CorrelatedEntity {
	var out []*correlate.CorrelatedEntity
	for _, e := range m.machine.Session().AllEntities() {
		if !e.Found {
			out = append(out, e)
		}
	}
	return out
}

func (m *PanelModel) toggleImportPick() {
	rows := m.importCandidates()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return
	}
	k := rows[m.cursor].GroupKey
	m.importPicks[k] = !m.importPicks[k]
}

// selectablePlatforms returns the platforms the pending flow can choose
// from: sim platforms for scenario and atomic flows, intel otherwise.
func (m PanelModel) selectablePlatforms() []platform.Platform {
	s := m.machine.Session()
	kind := platform.KindIntel
	if s.PendingFlow() == panel.FlowScenario || s.PendingFlow() == panel.FlowAtomic {
		kind = platform.KindSim
	}
	return s.Snapshot().OfKind(kind)
}

// containerTypeChoices prefers the platform's own report-type vocabulary and
// falls back to a fixed set while it loads.
func (m PanelModel) containerTypeChoices() []string {
	s := m.machine.Session()
	if v := s.Vocabulary(s.ContainerPlatform(), "report_types_ov"); len(v) > 0 {
		return v
	}
	return []string{"Report", "Grouping", "Case-Incident", "Case-RFI"}
}

// attackPatternNames collects the attack patterns of the current scan, the
// seed for the scenario flow.
func (m PanelModel) attackPatternNames() []string {
	var names []string
	for _, e := range m.machine.Session().AllEntities() {
		if e.Type == "Attack-Pattern" && e.Name != "" {
			names = append(names, e.Name)
		}
	}
	return names
}

// currentAttackPattern picks the row under the cursor when it is an attack
// pattern, otherwise the first one in the scan.
func (m PanelModel) currentAttackPattern() string {
	if e, ok := m.entityUnderCursor(); ok && e.Type == "Attack-Pattern" {
		return e.Ident()
	}
	for _, e := range m.machine.Session().AllEntities() {
		if e.Type == "Attack-Pattern" {
			return e.Ident()
		}
	}
	return ""
}

// nextTypeFilter cycles through the types present in the scan, ending on the
// empty filter.
func (m PanelModel) nextTypeFilter() string {
	types := correlate.Types(m.machine.Session().AllEntities())
	if len(types) == 0 {
		return ""
	}
	current := m.machine.Session().Filter().Type
	if current == "" {
		return types[0]
	}
	for i, t := range types {
		if t == current {
			if i+1 < len(types) {
				return types[i+1]
			}
			return ""
		}
	}
	return ""
}

// refreshDetail re-renders the scrollable pane for the modes that use it.
func (m *PanelModel) refreshDetail() {
	switch m.machine.Session().Mode() {
	case panel.ModeEntity, panel.ModeLoading:
		m.detail.SetContent(m.renderEntityDetail())
	case panel.ModePreview:
		m.detail.SetContent(m.renderPreviewDetail())
	}
}

func (m PanelModel) scanPageCmd() tea.Cmd {
	scanner := m.scanner
	text := m.pageText
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
		defer cancel()
		return scanDoneMsg{batch: scanner.Scan(ctx, text)}
	}
}

// probePlatforms issues one liveness probe per configured platform at
// startup; results show as dots next to the platform names.
func (m PanelModel) probePlatforms() []tea.Cmd {
	var cmds []tea.Cmd
	for _, pl := range m.machine.Session().Snapshot().All() {
		cmds = append(cmds, m.statusCmd(pl.ID))
	}
	return cmds
}
