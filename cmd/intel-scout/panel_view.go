// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/monadic/intel-scout/pkg/bridge"
	"github.com/monadic/intel-scout/pkg/correlate"
	"github.com/monadic/intel-scout/pkg/panel"
	"github.com/monadic/intel-scout/pkg/platform"
)

var (
	uiHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	uiSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("141"))
	uiNameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	uiDimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	uiOkStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	uiWarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	uiErrStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	uiCyanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	uiPurpleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
)

var uiRule = strings.Repeat("─", 65)

// banner draws the boxed title at the top of a view.
func banner(title string) string {
	const inner = 64
	pad := inner - 2 - lipgloss.Width(title)
	if pad < 0 {
		pad = 0
	}
	var b strings.Builder
	b.WriteString(uiHeaderStyle.Render("╭" + strings.Repeat("─", inner) + "╮"))
	b.WriteString("\n")
	b.WriteString(uiHeaderStyle.Render("│") + "  " + uiHeaderStyle.Render(title) + strings.Repeat(" ", pad) + uiHeaderStyle.Render("│"))
	b.WriteString("\n")
	b.WriteString(uiHeaderStyle.Render("╰" + strings.Repeat("─", inner) + "╯"))
	b.WriteString("\n\n")
	return b.String()
}

func kindStyle(k platform.Kind) lipgloss.Style {
	if k == platform.KindSim {
		return uiPurpleStyle
	}
	return uiCyanStyle
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func (m PanelModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "\n  Initializing..."
	}
	if m.helpMode {
		return m.renderHelp()
	}

	var b strings.Builder
	s := m.machine.Session()

	switch s.Mode() {
	case panel.ModeIdle:
		b.WriteString(m.renderIdle())
	case panel.ModeScanResults:
		b.WriteString(m.renderScanResults())
	case panel.ModeLoading:
		if s.PendingFlow() == panel.FlowNone {
			b.WriteString(m.renderEntity())
		} else {
			b.WriteString(m.renderFlowLoading())
		}
	case panel.ModeEntity:
		b.WriteString(m.renderEntity())
	case panel.ModeNotFound:
		b.WriteString(m.renderNotFound())
	case panel.ModePreview:
		b.WriteString(m.renderPreview())
	case panel.ModePlatformSelect, panel.ModeAddSelection:
		b.WriteString(m.renderPlatformSelect())
	case panel.ModeContainerType:
		b.WriteString(m.renderContainerType())
	case panel.ModeContainerForm:
		b.WriteString(m.renderContainerForm())
	case panel.ModeExistingContainers:
		b.WriteString(m.renderExistingContainers())
	case panel.ModeInvestigation:
		b.WriteString(m.renderInvestigation())
	case panel.ModeScenarioOverview:
		b.WriteString(m.renderScenarioOverview())
	case panel.ModeScenarioForm:
		b.WriteString(m.renderScenarioForm())
	case panel.ModeAtomicTesting:
		b.WriteString(m.renderAtomicTesting())
	case panel.ModeUnifiedSearch:
		b.WriteString(m.renderUnifiedSearch())
	case panel.ModeAdd:
		b.WriteString(m.renderAdd())
	case panel.ModeImportResults:
		b.WriteString(m.renderImportResults())
	case panel.ModeUnavailable:
		b.WriteString(m.renderUnavailable())
	case panel.ModeError:
		b.WriteString(m.renderError())
	}

	if m.notification != "" {
		style := uiCyanStyle
		switch m.notifyLevel {
		case panel.NotifyWarn:
			style = uiWarnStyle
		case panel.NotifyError:
			style = uiErrStyle
		}
		b.WriteString("\n  " + style.Render(m.notification) + "\n")
	}

	return b.String()
}

// renderPlatformLine shows one dot per configured platform, colored by the
// last liveness probe.
func (m PanelModel) renderPlatformLine() string {
	s := m.machine.Session()
	platforms := s.Snapshot().All()
	if len(platforms) == 0 {
		return uiDimStyle.Render("no platforms configured")
	}
	parts := make([]string, 0, len(platforms))
	for _, pl := range platforms {
		dot := uiDimStyle.Render("●")
		if alive, ok := s.PlatformAlive(pl.ID); ok {
			if alive {
				dot = uiOkStyle.Render("●")
			} else {
				dot = uiErrStyle.Render("●")
			}
		}
		parts = append(parts, dot+" "+kindStyle(pl.Kind).Render(pl.Name))
	}
	return strings.Join(parts, uiDimStyle.Render("  |  "))
}

func (m PanelModel) renderIdle() string {
	var b strings.Builder
	b.WriteString(banner("INTEL SCOUT"))
	b.WriteString("  " + m.renderPlatformLine() + "\n\n")

	if m.scanning {
		b.WriteString("  " + m.spinner.View() + " Scanning page for known entities...\n")
		if m.pageURL != "" {
			b.WriteString("  " + uiDimStyle.Render(m.pageURL) + "\n")
		}
		return b.String()
	}

	b.WriteString("  " + uiDimStyle.Render("No scan open.") + "\n\n")
	b.WriteString("  " + uiNameStyle.Render("r") + "  rescan the page\n")
	b.WriteString("  " + uiNameStyle.Render("/") + "  search all platforms\n")
	b.WriteString("  " + uiNameStyle.Render("q") + "  quit\n")
	return b.String()
}

func (m PanelModel) renderFlowLoading() string {
	var b strings.Builder
	b.WriteString(banner("WORKING"))
	switch m.machine.Session().PendingFlow() {
	case panel.FlowContainer:
		b.WriteString("  " + m.spinner.View() + " Checking the page against your intel platforms...\n")
	case panel.FlowScenario, panel.FlowAtomic:
		b.WriteString("  " + m.spinner.View() + " Loading assets and teams from the simulation platform...\n")
	default:
		b.WriteString("  " + m.spinner.View() + " Working...\n")
	}
	b.WriteString("\n" + "  " + uiDimStyle.Render("Esc cancel") + "\n")
	return b.String()
}

func (m PanelModel) renderScanResults() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("SCAN RESULTS"))
	b.WriteString("  " + m.renderPlatformLine() + "\n\n")

	if m.scanning {
		b.WriteString("  " + m.spinner.View() + " Rescanning page...\n\n")
	}

	all := s.AllEntities()
	rows := s.Entities()

	if len(all) == 0 {
		b.WriteString("  " + uiDimStyle.Render("Nothing detected on this page.") + "\n\n")
		b.WriteString("  " + uiDimStyle.Render("r rescan  / search  q quit") + "\n")
		return b.String()
	}

	found := 0
	for _, e := range all {
		if e.Found {
			found++
		}
	}
	b.WriteString(fmt.Sprintf("  %d entities   %s   %s\n",
		len(all),
		uiOkStyle.Render(fmt.Sprintf("● %d known", found)),
		uiErrStyle.Render(fmt.Sprintf("○ %d unknown", len(all)-found))))

	if f := s.Filter(); f != (correlate.Filter{}) {
		desc := "found=" + f.Found.String()
		if f.Type != "" {
			desc += " type=" + f.Type
		}
		b.WriteString("  " + uiCyanStyle.Render(fmt.Sprintf("Filter: %s (%d/%d)", desc, len(rows), len(all))) + "\n")
	}
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString("  " + uiDimStyle.Render("No rows match the active filter.") + "\n")
	}

	maxRows := m.height - 14
	if maxRows < 5 {
		maxRows = 5
	}
	for i, e := range rows {
		if i >= maxRows {
			b.WriteString("  " + uiDimStyle.Render(fmt.Sprintf("... +%d more", len(rows)-maxRows)) + "\n")
			break
		}
		cursor := "  "
		nameStyle := uiNameStyle
		if i == m.cursor {
			cursor = uiOkStyle.Render("▸ ")
			nameStyle = uiHeaderStyle
		}
		marker := uiErrStyle.Render("○")
		if e.Found {
			marker = uiOkStyle.Render("●")
		}
		line := fmt.Sprintf("%s%s %s %s",
			cursor,
			marker,
			uiDimStyle.Render(fmt.Sprintf("%-22s", truncate(e.Type, 22))),
			nameStyle.Render(truncate(e.Ident(), 42)))
		if n := len(e.Matches); n > 0 {
			line += " " + uiDimStyle.Render(fmt.Sprintf("(%d)", n))
		}
		if e.DiscoveredByAI {
			line += " " + uiWarnStyle.Render("AI")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(uiDimStyle.Render(uiRule))
	b.WriteString("\n")
	b.WriteString(uiDimStyle.Render("Enter open  p preview  f/t filter  a add  C container  I investigate  S scenario  A atomic  / search  ? help"))
	b.WriteString("\n")
	return b.String()
}

func (m PanelModel) renderEntity() string {
	s := m.machine.Session()
	e := s.ActiveEntity()
	var b strings.Builder

	title := "ENTITY"
	if e != nil {
		title = truncate(e.Ident(), 58)
	}
	b.WriteString(banner(title))

	if e != nil {
		b.WriteString("  " + uiDimStyle.Render(e.Type))
		if !s.ActiveExists() {
			b.WriteString("   " + uiWarnStyle.Render("not present in platform"))
		}
		b.WriteString("\n")
	}

	nav := s.Nav()
	if !nav.Empty() {
		b.WriteString(fmt.Sprintf("  Platform %d/%d  ", nav.Index()+1, nav.Len()))
		for i, slot := range nav.Slots() {
			if i > 0 {
				b.WriteString(uiDimStyle.Render("  "))
			}
			label := kindStyle(slot.Kind).Render(slot.PlatformName)
			if i == nav.Index() {
				label = uiHeaderStyle.Render("[" + slot.PlatformName + "]")
			}
			b.WriteString(label)
		}
		if nav.Loading() {
			b.WriteString("  " + m.spinner.View())
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.detail.View())
	b.WriteString("\n")

	if containers := s.Containers(); len(containers) > 0 {
		b.WriteString("\n  " + uiSectionStyle.Render(fmt.Sprintf("CONTAINERS (%d)", len(containers))) + "\n")
		for i, c := range containers {
			if i >= 5 {
				b.WriteString("  " + uiDimStyle.Render(fmt.Sprintf("... +%d more", len(containers)-5)) + "\n")
				break
			}
			line := "  - " + truncate(c.Name(), 50)
			if t := c.EntityType(); t != "" {
				line += " " + uiDimStyle.Render("("+t+")")
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(uiDimStyle.Render(uiRule))
	b.WriteString("\n")
	b.WriteString(uiDimStyle.Render("←/→ platform  j/k scroll  C container  I investigate  Esc back"))
	b.WriteString("\n")
	return b.String()
}

// renderEntityDetail produces the scrollable body of the entity view.
func (m PanelModel) renderEntityDetail() string {
	s := m.machine.Session()
	if s.ActiveEntity() == nil {
		return ""
	}
	loading := s.Mode() == panel.ModeLoading || s.Nav().Loading()
	data := s.ActiveData()

	var b strings.Builder
	if loading {
		b.WriteString(m.spinner.View() + " Loading platform record...\n\n")
	}
	if len(data) == 0 {
		if !loading {
			b.WriteString(uiDimStyle.Render("No cached record for this platform.") + "\n")
		}
		return b.String()
	}
	b.WriteString(renderEntityFields(data))
	return b.String()
}

// entityFieldOrder lists the fields worth showing first; everything else
// follows alphabetically.
var entityFieldOrder = []string{
	"name", "value", "observable_value", "description", "entity_type", "type",
	"pattern", "x_mitre_id", "created_at", "created", "modified", "confidence",
}

func renderEntityFields(data bridge.Entity) string {
	var b strings.Builder
	seen := make(map[string]bool)
	write := func(k string, v any) {
		val := strings.TrimSpace(fmtEntityValue(v))
		if val == "" {
			return
		}
		b.WriteString(uiSectionStyle.Render(k) + "\n")
		b.WriteString(truncate(val, 400) + "\n\n")
	}
	for _, k := range entityFieldOrder {
		if v, ok := data[k]; ok {
			seen[k] = true
			write(k, v)
		}
	}
	rest := make([]string, 0, len(data))
	for k := range data {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		write(k, data[k])
	}
	return b.String()
}

// fmtEntityValue flattens a raw payload value for display. Lists cap at a
// few items; nested objects prefer their name-ish field over a JSON dump.
func fmtEntityValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return fmt.Sprintf("%t", t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case []any:
		parts := make([]string, 0, len(t))
		for i, item := range t {
			if i == 6 {
				parts = append(parts, fmt.Sprintf("+%d more", len(t)-6))
				break
			}
			parts = append(parts, fmtEntityValue(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		for _, k := range []string{"name", "value", "definition", "id"} {
			if s, ok := t[k].(string); ok && s != "" {
				return s
			}
		}
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(raw)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func (m PanelModel) renderNotFound() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("NOT FOUND"))
	if e := s.ActiveEntity(); e != nil {
		b.WriteString("  " + uiNameStyle.Render(truncate(e.Ident(), 58)) + "\n")
		b.WriteString("  " + uiDimStyle.Render(e.Type) + "\n\n")
	}
	b.WriteString("  " + uiWarnStyle.Render("No configured platform knows this entity.") + "\n\n")
	b.WriteString("  " + uiNameStyle.Render("a") + "  import missing entities as observables\n")
	b.WriteString("  " + uiNameStyle.Render("Esc") + "  back to results\n")
	return b.String()
}

func (m PanelModel) renderPreview() string {
	s := m.machine.Session()
	var b strings.Builder
	title := "PREVIEW"
	if e := s.PreviewEntity(); e != nil {
		title = "PREVIEW: " + truncate(e.Ident(), 48)
	}
	b.WriteString(banner(title))
	b.WriteString(m.detail.View())
	b.WriteString("\n\n")
	b.WriteString(uiDimStyle.Render("j/k scroll  Enter/Esc back"))
	b.WriteString("\n")
	return b.String()
}

// renderPreviewDetail produces the scrollable body of the preview: identity
// plus the cached payload of every platform match.
func (m PanelModel) renderPreviewDetail() string {
	s := m.machine.Session()
	e := s.PreviewEntity()
	if e == nil {
		return ""
	}
	var b strings.Builder

	b.WriteString(uiSectionStyle.Render("identity") + "\n")
	b.WriteString(e.Ident() + "\n\n")
	b.WriteString(uiSectionStyle.Render("type") + "\n")
	b.WriteString(e.Type + "\n\n")
	if e.DiscoveredByAI {
		b.WriteString(uiSectionStyle.Render("discovery") + "\n")
		b.WriteString(fmt.Sprintf("AI suggested (confidence %.2f)\n", e.Confidence))
		if e.Reason != "" {
			b.WriteString(truncate(e.Reason, 300) + "\n")
		}
		b.WriteString("\n")
	}

	if len(e.Matches) == 0 {
		b.WriteString(uiDimStyle.Render("Not present on any platform.") + "\n")
		return b.String()
	}

	for _, match := range e.Matches {
		name := match.PlatformID
		if pl, ok := s.Snapshot().ByID(match.PlatformID); ok {
			name = pl.Name
		}
		b.WriteString(kindStyle(match.Kind).Render(name) + uiDimStyle.Render(" ("+string(match.Kind)+")") + "\n")
		if len(match.Data) == 0 {
			b.WriteString(uiDimStyle.Render("  no cached data") + "\n\n")
			continue
		}
		keys := make([]string, 0, len(match.Data))
		for k := range match.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i >= 12 {
				b.WriteString(uiDimStyle.Render(fmt.Sprintf("  ... +%d more fields", len(keys)-12)) + "\n")
				break
			}
			val := strings.TrimSpace(fmtEntityValue(match.Data[k]))
			if val == "" {
				continue
			}
			b.WriteString("  " + uiDimStyle.Render(k+":") + " " + truncate(val, 120) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m PanelModel) renderPlatformSelect() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("SELECT PLATFORM"))

	switch s.PendingFlow() {
	case panel.FlowContainer:
		b.WriteString("  Choose the intel platform for the new container.\n\n")
	case panel.FlowInvestigation:
		b.WriteString("  Choose the intel platform for the investigation.\n\n")
	case panel.FlowScenario:
		b.WriteString("  Choose the simulation platform for the scenario.\n\n")
	case panel.FlowAtomic:
		b.WriteString("  Choose the simulation platform for the atomic test.\n\n")
	case panel.FlowAdd:
		b.WriteString("  Choose the intel platform to receive the new observables.\n\n")
	}

	choices := m.selectablePlatforms()
	if len(choices) == 0 {
		b.WriteString("  " + uiWarnStyle.Render("No eligible platform configured.") + "\n\n")
		b.WriteString("  " + uiDimStyle.Render("Esc back") + "\n")
		return b.String()
	}

	for i, pl := range choices {
		cursor := "  "
		nameStyle := uiNameStyle
		if i == m.platformCursor {
			cursor = uiOkStyle.Render("▸ ")
			nameStyle = uiHeaderStyle
		}
		dot := uiDimStyle.Render("●")
		if alive, ok := s.PlatformAlive(pl.ID); ok {
			if alive {
				dot = uiOkStyle.Render("●")
			} else {
				dot = uiErrStyle.Render("●")
			}
		}
		b.WriteString(fmt.Sprintf("%s%s %s %s\n", cursor, dot, nameStyle.Render(pl.Name), uiDimStyle.Render(pl.URL)))
	}

	b.WriteString("\n")
	b.WriteString(uiDimStyle.Render("↑/↓ select  Enter confirm  Esc cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m PanelModel) renderContainerType() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("CONTAINER TYPE"))

	if pl, ok := s.Snapshot().ByID(s.ContainerPlatform()); ok {
		b.WriteString("  " + uiDimStyle.Render("on ") + kindStyle(pl.Kind).Render(pl.Name) + "\n\n")
	}

	choices := m.containerTypeChoices()
	for i, c := range choices {
		cursor := "  "
		nameStyle := uiNameStyle
		if i == m.typeCursor {
			cursor = uiOkStyle.Render("▸ ")
			nameStyle = uiHeaderStyle
		}
		b.WriteString(cursor + nameStyle.Render(c) + "\n")
	}
	if len(s.Vocabulary(s.ContainerPlatform(), "report_types_ov")) == 0 {
		b.WriteString("\n  " + uiDimStyle.Render("(platform vocabulary loading, showing defaults)") + "\n")
	}

	b.WriteString("\n")
	b.WriteString(uiDimStyle.Render("↑/↓ select  Enter confirm  Esc cancel"))
	b.WriteString("\n")
	return b.String()
}

// renderFormField draws one labeled text field with a focus marker.
func renderFormField(label, value string, focused bool) string {
	marker := "  "
	if focused {
		marker = uiOkStyle.Render("▸ ")
	}
	line := marker + uiSectionStyle.Render(label) + "\n"
	text := value
	if focused {
		text += uiHeaderStyle.Render("_")
	}
	if text == "" {
		text = uiDimStyle.Render("(empty)")
	}
	return line + "    " + text + "\n\n"
}

func (m PanelModel) renderContainerForm() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("NEW " + strings.ToUpper(s.ContainerType())))

	b.WriteString(renderFormField("Name", m.formName, m.formFocus == 0))
	b.WriteString(renderFormField("Description", m.formDesc, m.formFocus == 1))

	if m.pageURL != "" {
		b.WriteString("  " + uiDimStyle.Render("external reference: "+truncate(m.pageURL, 48)) + "\n")
	}
	if labels := s.Labels(s.ContainerPlatform()); len(labels) > 0 {
		b.WriteString("  " + uiDimStyle.Render(fmt.Sprintf("%d labels available on platform", len(labels))) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(uiDimStyle.Render("Tab next field  Enter create  Esc cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m PanelModel) renderExistingContainers() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("PAGE ALREADY COVERED"))

	containers := s.ExistingContainers()
	b.WriteString(fmt.Sprintf("  %d containers already reference this page:\n\n", len(containers)))
	for i, c := range containers {
		if i >= 10 {
			b.WriteString("  " + uiDimStyle.Render(fmt.Sprintf("... +%d more", len(containers)-10)) + "\n")
			break
		}
		line := "  - " + uiNameStyle.Render(truncate(c.Name(), 50))
		if t := c.EntityType(); t != "" {
			line += " " + uiDimStyle.Render("("+t+")")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(uiDimStyle.Render("j/k scroll  Enter/Esc back"))
	b.WriteString("\n")
	return b.String()
}

func (m PanelModel) renderInvestigation() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("NEW INVESTIGATION"))

	if pl, ok := s.Snapshot().ByID(s.IntelPlatform()); ok {
		b.WriteString("  " + uiDimStyle.Render("on ") + kindStyle(pl.Kind).Render(pl.Name) + "\n\n")
	}

	known := 0
	for _, e := range s.AllEntities() {
		if e.Found && e.HasMatch(s.IntelPlatform(), platform.KindIntel) {
			known++
		}
	}
	b.WriteString(fmt.Sprintf("  Seeds the investigation with the %s from this scan.\n\n",
		uiOkStyle.Render(fmt.Sprintf("%d known entities", known))))

	b.WriteString(renderFormField("Name", m.formName, true))

	b.WriteString("\n")
	b.WriteString(uiDimStyle.Render("Enter create  Esc cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m PanelModel) renderScenarioOverview() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("SCENARIO"))

	if pl, ok := s.Snapshot().ByID(s.SimPlatform()); ok {
		b.WriteString("  " + uiDimStyle.Render("on ") + kindStyle(pl.Kind).Render(pl.Name) + "\n\n")
	}

	seed := s.ScenarioSeed()
	b.WriteString("  " + uiSectionStyle.Render("ATTACK PATTERNS") + "\n")
	if len(seed) == 0 {
		b.WriteString("  " + uiDimStyle.Render("none detected on this page") + "\n")
	}
	for i, name := range seed {
		if i >= 8 {
			b.WriteString("  " + uiDimStyle.Render(fmt.Sprintf("... +%d more", len(seed)-8)) + "\n")
			break
		}
		b.WriteString("  " + uiCyanStyle.Render(name) + "\n")
	}
	b.WriteString("\n")

	sim := s.Sim()
	b.WriteString("  " + uiSectionStyle.Render("PLATFORM CONTEXT") + "\n")
	b.WriteString(fmt.Sprintf("  %d assets   %d teams   %d injector contracts\n",
		len(sim.Assets), len(sim.Teams), len(sim.Contracts)))

	b.WriteString("\n")
	b.WriteString(uiDimStyle.Render("Enter open scenario form  Esc cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m PanelModel) renderScenarioForm() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("NEW SCENARIO"))

	b.WriteString(renderFormField("Name", m.formName, m.formFocus == 0))
	b.WriteString(renderFormField("Description", m.formDesc, m.formFocus == 1))

	if seed := s.ScenarioSeed(); len(seed) > 0 {
		b.WriteString("  " + uiDimStyle.Render(fmt.Sprintf("%d attack patterns attach as injects", len(seed))) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(uiDimStyle.Render("Tab next field  Enter create  Esc cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m PanelModel) renderAtomicTesting() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("ATOMIC TESTING"))

	b.WriteString("  " + uiDimStyle.Render("pattern ") + uiCyanStyle.Render(truncate(s.AtomicPattern(), 52)) + "\n")
	if pl, ok := s.Snapshot().ByID(s.SimPlatform()); ok {
		b.WriteString("  " + uiDimStyle.Render("on ") + kindStyle(pl.Kind).Render(pl.Name) + "\n")
	}
	b.WriteString("\n")

	assets := s.Sim().Assets
	if len(assets) == 0 {
		b.WriteString("  " + uiWarnStyle.Render("No assets available on this platform.") + "\n\n")
		b.WriteString("  " + uiDimStyle.Render("Esc back") + "\n")
		return b.String()
	}

	b.WriteString("  " + uiSectionStyle.Render("TARGET ASSET") + "\n")
	for i, a := range assets {
		if i >= 12 {
			b.WriteString("  " + uiDimStyle.Render(fmt.Sprintf("... +%d more", len(assets)-12)) + "\n")
			break
		}
		cursor := "  "
		nameStyle := uiNameStyle
		if i == m.assetCursor {
			cursor = uiOkStyle.Render("▸ ")
			nameStyle = uiHeaderStyle
		}
		line := cursor + nameStyle.Render(truncate(a.Name(), 40))
		if t := a.EntityType(); t != "" {
			line += " " + uiDimStyle.Render("("+t+")")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(uiDimStyle.Render("↑/↓ select  Enter launch  Esc cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m PanelModel) renderUnifiedSearch() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("SEARCH ALL PLATFORMS"))

	b.WriteString("  " + uiNameStyle.Render("> ") + m.searchInput + uiHeaderStyle.Render("_") + "\n\n")

	hits := s.SearchResults()
	if s.SearchText() == "" {
		b.WriteString("  " + uiDimStyle.Render("Type a query and press Enter.") + "\n")
	} else if len(hits) == 0 {
		b.WriteString("  " + uiDimStyle.Render(fmt.Sprintf("No hits yet for %q.", s.SearchText())) + "\n")
	} else {
		byPlatform := make(map[string][]bridge.Entity)
		for _, h := range hits {
			byPlatform[h.PlatformID] = append(byPlatform[h.PlatformID], h.Entity)
		}
		b.WriteString(fmt.Sprintf("  %d hits for %s\n\n", len(hits), uiCyanStyle.Render(s.SearchText())))
		for _, pl := range s.Snapshot().All() {
			entities := byPlatform[pl.ID]
			if len(entities) == 0 {
				continue
			}
			b.WriteString("  " + kindStyle(pl.Kind).Render(pl.Name) + uiDimStyle.Render(fmt.Sprintf(" (%d)", len(entities))) + "\n")
			for i, e := range entities {
				if i >= 8 {
					b.WriteString("    " + uiDimStyle.Render(fmt.Sprintf("... +%d more", len(entities)-8)) + "\n")
					break
				}
				line := "    " + uiNameStyle.Render(truncate(e.Name(), 44))
				if t := e.EntityType(); t != "" {
					line += " " + uiDimStyle.Render("("+t+")")
				}
				b.WriteString(line + "\n")
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(uiDimStyle.Render("Enter search  j/k scroll  Esc back"))
	b.WriteString("\n")
	return b.String()
}

func (m PanelModel) renderAdd() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("ADD MISSING ENTITIES"))

	if pl, ok := s.Snapshot().ByID(s.ImportPlatform()); ok {
		b.WriteString("  " + uiDimStyle.Render("import into ") + kindStyle(pl.Kind).Render(pl.Name) + "\n\n")
	}

	rows := m.importCandidates()
	if len(rows) == 0 {
		b.WriteString("  " + uiDimStyle.Render("Every detected entity is already known.") + "\n\n")
		b.WriteString("  " + uiDimStyle.Render("Esc back") + "\n")
		return b.String()
	}

	picked := 0
	for _, on := range m.importPicks {
		if on {
			picked++
		}
	}

	for i, e := range rows {
		cursor := "  "
		nameStyle := uiNameStyle
		if i == m.cursor {
			cursor = uiOkStyle.Render("▸ ")
			nameStyle = uiHeaderStyle
		}
		box := uiDimStyle.Render("[ ]")
		if m.importPicks[e.GroupKey] {
			box = uiOkStyle.Render("[x]")
		}
		b.WriteString(fmt.Sprintf("%s%s %s %s\n",
			cursor,
			box,
			uiDimStyle.Render(fmt.Sprintf("%-22s", truncate(e.Type, 22))),
			nameStyle.Render(truncate(e.Ident(), 40))))
	}

	b.WriteString("\n")
	if picked == 0 {
		b.WriteString("  " + uiDimStyle.Render(fmt.Sprintf("Enter imports all %d rows.", len(rows))) + "\n")
	} else {
		b.WriteString("  " + uiDimStyle.Render(fmt.Sprintf("Enter imports the %d picked rows.", picked)) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(uiDimStyle.Render("Space toggle  Enter import  Esc cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m PanelModel) renderImportResults() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("IMPORT COMPLETE"))

	name := s.ImportPlatform()
	if pl, ok := s.Snapshot().ByID(name); ok {
		name = pl.Name
	}
	b.WriteString("  " + uiOkStyle.Render(fmt.Sprintf("✓ Created %d observables on %s.", s.ImportedCount(), name)) + "\n\n")
	b.WriteString("  " + uiDimStyle.Render("Rescan to pick the new entities up as known.") + "\n\n")
	b.WriteString("  " + uiNameStyle.Render("r") + "  rescan now\n")
	b.WriteString("  " + uiNameStyle.Render("Esc") + "  back to results\n")
	return b.String()
}

func (m PanelModel) renderUnavailable() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("UNAVAILABLE"))
	b.WriteString("  " + uiWarnStyle.Render(s.UnavailableReason()) + "\n\n")
	b.WriteString("  " + uiDimStyle.Render("Enter/Esc back") + "\n")
	return b.String()
}

func (m PanelModel) renderError() string {
	s := m.machine.Session()
	var b strings.Builder
	b.WriteString(banner("ERROR"))
	b.WriteString("  " + uiErrStyle.Render(s.ErrorText()) + "\n\n")
	b.WriteString("  " + uiDimStyle.Render("Enter/Esc back") + "\n")
	return b.String()
}

func (m PanelModel) renderHelp() string {
	var b strings.Builder
	b.WriteString(banner("INTEL SCOUT HELP"))

	b.WriteString(uiSectionStyle.Render("RESULTS"))
	b.WriteString("\n")
	b.WriteString("  " + uiNameStyle.Render("Enter") + "  open the entity under the cursor\n")
	b.WriteString("  " + uiNameStyle.Render("p") + "  preview cached data without opening\n")
	b.WriteString("  " + uiNameStyle.Render("f") + "  cycle found filter (all/found/missing)\n")
	b.WriteString("  " + uiNameStyle.Render("t") + "  cycle type filter\n")
	b.WriteString("  " + uiNameStyle.Render("r") + "  rescan the page\n")
	b.WriteString("\n")

	b.WriteString(uiSectionStyle.Render("ENTITY VIEW"))
	b.WriteString("\n")
	b.WriteString("  " + uiNameStyle.Render("←/→ h/l") + "  previous/next platform record\n")
	b.WriteString("  " + uiNameStyle.Render("↑/↓ j/k") + "  scroll details\n")
	b.WriteString("\n")

	b.WriteString(uiSectionStyle.Render("ACTIONS"))
	b.WriteString("\n")
	b.WriteString("  " + uiNameStyle.Render("C") + "  create a container for this page\n")
	b.WriteString("  " + uiNameStyle.Render("I") + "  start an investigation from known entities\n")
	b.WriteString("  " + uiNameStyle.Render("S") + "  build a scenario from detected attack patterns\n")
	b.WriteString("  " + uiNameStyle.Render("A") + "  launch an atomic test for an attack pattern\n")
	b.WriteString("  " + uiNameStyle.Render("a") + "  import unknown entities as observables\n")
	b.WriteString("  " + uiNameStyle.Render("/") + "  search every platform at once\n")
	b.WriteString("\n")

	b.WriteString(uiSectionStyle.Render("QUIT"))
	b.WriteString("\n")
	b.WriteString("  " + uiNameStyle.Render("Esc") + "  back\n")
	b.WriteString("  " + uiNameStyle.Render("q") + "  quit\n")
	b.WriteString("\n")

	b.WriteString(uiDimStyle.Render("Press any key to close"))
	return b.String()
}
