package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gridstack/internal/advisor"
	"gridstack/internal/catalog"
	"gridstack/internal/models"
	"gridstack/internal/stack"
	"gridstack/logging"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle     = dimStyle.MarginTop(1)
)

func tierStyle(t models.Tier) lipgloss.Style {
	switch t {
	case models.TierCompatible:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	case models.TierPartial:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	}
}

type phase int

const (
	phaseUseCases phase = iota
	phaseProducts
	phaseResults
)

// productsLoadedMsg carries a catalog response. seq ties it to the fetch
// that produced it so late answers for a category the user has already
// left are dropped.
type productsLoadedMsg struct {
	seq      int
	products []models.Product
	err      error
}

type summaryMsg struct {
	text string
	err  error
}

// buildModel walks a use case's categories and scores the result.
type buildModel struct {
	ctx      context.Context
	gateway  catalog.Gateway
	advisor  *advisor.Advisor
	useCases []models.UseCaseTemplate
	limit    int

	stack  *stack.Stack
	phase  phase
	cursor int

	products []models.Product
	loadSeq  int
	loading  bool
	loadErr  error

	filter  textinput.Model
	spinner spinner.Model
	status  string

	summary     string
	summaryErr  error
	summarizing bool
}

func newBuildModel(ctx context.Context, gw catalog.Gateway, useCases []models.UseCaseTemplate, limit int, adv *advisor.Advisor) buildModel {
	ti := textinput.New()
	ti.Placeholder = "filter by name"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return buildModel{
		ctx:      ctx,
		gateway:  gw,
		advisor:  adv,
		useCases: useCases,
		limit:    limit,
		stack:    stack.New(),
		filter:   ti,
		spinner:  sp,
	}
}

// start installs tpl and begins loading its first category.
func (m *buildModel) start(tpl models.UseCaseTemplate) tea.Cmd {
	m.stack.SetUseCase(tpl)
	m.summary, m.summaryErr = "", nil
	return m.enterCategory()
}

// enterCategory moves the view to wherever the stack cursor now points.
func (m *buildModel) enterCategory() tea.Cmd {
	m.status = ""
	if m.stack.UseCase() == nil {
		m.phase = phaseUseCases
		m.cursor = 0
		return nil
	}
	if _, ok := m.stack.CurrentCategory(); !ok {
		m.phase = phaseResults
		m.stack.CalculateCompatibility()
		return nil
	}
	m.phase = phaseProducts
	return m.load()
}

func (m *buildModel) load() tea.Cmd {
	category, _ := m.stack.CurrentCategory()
	m.loadSeq++
	m.loading = true
	m.loadErr = nil
	m.products = nil
	m.cursor = 0
	m.filter.Reset()
	m.filter.Blur()
	return tea.Batch(m.spinner.Tick, fetchProducts(m.ctx, m.gateway, m.loadSeq, category.ProductTypeIDs, m.limit))
}

func fetchProducts(ctx context.Context, gw catalog.Gateway, seq int, typeIDs []string, limit int) tea.Cmd {
	return func() tea.Msg {
		products, err := gw.Products(ctx, typeIDs, limit)
		return productsLoadedMsg{seq: seq, products: products, err: err}
	}
}

func summarize(ctx context.Context, adv *advisor.Advisor, in advisor.Input) tea.Cmd {
	return func() tea.Msg {
		text, err := adv.Summarize(ctx, in)
		return summaryMsg{text: text, err: err}
	}
}

func (m buildModel) Init() tea.Cmd {
	if m.loading {
		category, _ := m.stack.CurrentCategory()
		return tea.Batch(m.spinner.Tick, fetchProducts(m.ctx, m.gateway, m.loadSeq, category.ProductTypeIDs, m.limit))
	}
	return nil
}

func (m buildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case productsLoadedMsg:
		if msg.seq != m.loadSeq {
			return m, nil
		}
		m.loading = false
		m.loadErr = msg.err
		m.products = msg.products
		m.cursor = m.selectedIndex()
		return m, nil

	case summaryMsg:
		m.summarizing = false
		m.summary, m.summaryErr = msg.text, msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.summarizing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.phase {
		case phaseUseCases:
			return m.updateUseCases(msg)
		case phaseProducts:
			return m.updateProducts(msg)
		case phaseResults:
			return m.updateResults(msg)
		}
	}
	return m, nil
}

func (m buildModel) updateUseCases(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.useCases)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.useCases) == 0 {
			return m, nil
		}
		cmd := m.start(m.useCases[m.cursor])
		return m, cmd
	}
	return m, nil
}

func (m buildModel) updateProducts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filter.Focused() {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.filter.Blur()
			m.cursor = 0
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.cursor = 0
		return m, cmd
	}

	visible := m.visible()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.filter.Focus()
		return m, textinput.Blink
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case "enter", " ":
		if m.cursor < len(visible) {
			m.toggle(visible[m.cursor])
		}
	case "r":
		if m.loadErr != nil {
			return m, m.load()
		}
	case "right", "l", "tab", "n":
		if !m.stack.Next() {
			category, _ := m.stack.CurrentCategory()
			m.status = fmt.Sprintf("%s is required: select a product to continue", category.Name)
			return m, nil
		}
		return m, m.enterCategory()
	case "left", "h", "esc", "b":
		m.stack.Back()
		return m, m.enterCategory()
	}
	return m, nil
}

func (m buildModel) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "enter":
		return m, tea.Quit
	case "left", "h", "esc", "b":
		m.stack.Back()
		return m, m.enterCategory()
	case "r":
		m.stack.Reset()
		return m, m.enterCategory()
	case "s":
		if m.advisor == nil || m.summarizing {
			return m, nil
		}
		m.summarizing = true
		m.summary, m.summaryErr = "", nil
		return m, tea.Batch(m.spinner.Tick, summarize(m.ctx, m.advisor, advisor.FromStack(m.stack)))
	}
	return m, nil
}

// toggle selects p for the current category, or clears the category when p
// is already its selection.
func (m *buildModel) toggle(p models.Product) {
	category, ok := m.stack.CurrentCategory()
	if !ok {
		return
	}
	if current, has := m.stack.Product(category.Name); has && current.ID == p.ID {
		m.stack.RemoveProduct(category.Name)
		return
	}
	if err := m.stack.AddProduct(category.Name, p); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

// visible returns the loaded products whose name, short description or
// product type matches the filter.
func (m buildModel) visible() []models.Product {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if q == "" {
		return m.products
	}
	var out []models.Product
	for _, p := range m.products {
		if matchesFilter(p, q) {
			out = append(out, p)
		}
	}
	return out
}

func matchesFilter(p models.Product, q string) bool {
	for _, field := range []string{
		p.DisplayName(),
		p.Root.ProfileInfos.DescriptionShort,
		p.ProductType.Name,
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// selectedIndex positions the cursor on the category's current selection.
func (m buildModel) selectedIndex() int {
	category, ok := m.stack.CurrentCategory()
	if !ok {
		return 0
	}
	current, has := m.stack.Product(category.Name)
	if !has {
		return 0
	}
	for i, p := range m.products {
		if p.ID == current.ID {
			return i
		}
	}
	return 0
}

func (m buildModel) View() string {
	switch m.phase {
	case phaseProducts:
		return m.viewProducts()
	case phaseResults:
		return m.viewResults()
	default:
		return m.viewUseCases()
	}
}

func (m buildModel) viewUseCases() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Choose a use case") + "\n\n")
	for i, u := range m.useCases {
		line := fmt.Sprintf("%s  %s", u.Name, dimStyle.Render(u.Description))
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString(helpStyle.Render("↑/↓ move • enter choose • q quit"))
	return b.String()
}

func (m buildModel) viewProducts() string {
	u := m.stack.UseCase()
	category, _ := m.stack.CurrentCategory()

	var b strings.Builder
	b.WriteString(titleStyle.Render(u.Name) + "\n")
	b.WriteString(m.viewSteps() + "\n\n")

	req := "optional"
	if category.Required {
		req = "required"
	}
	b.WriteString(fmt.Sprintf("%s %s\n", titleStyle.Render(category.Name), dimStyle.Render("("+req+")")))
	if m.filter.Focused() || m.filter.Value() != "" {
		b.WriteString(m.filter.View() + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Loading products...\n")
	case m.loadErr != nil:
		b.WriteString(errorStyle.Render("Failed to load products: "+m.loadErr.Error()) + "\n")
		b.WriteString(dimStyle.Render("press r to retry") + "\n")
	default:
		visible := m.visible()
		if len(visible) == 0 {
			b.WriteString(dimStyle.Render("No products found.") + "\n")
		}
		current, _ := m.stack.Product(category.Name)
		for i, p := range visible {
			mark := "[ ]"
			name := p.DisplayName()
			if p.ID == current.ID {
				mark = selectedStyle.Render("[x]")
				name = selectedStyle.Render(name)
			}
			meta := dimStyle.Render(fmt.Sprintf("%d chains, %d assets", len(p.ChainIDs()), len(p.AssetIDs())))
			prefix := "  "
			if i == m.cursor {
				prefix = cursorStyle.Render("> ")
			}
			b.WriteString(fmt.Sprintf("%s%s %s  %s\n", prefix, mark, name, meta))
		}
	}

	if m.status != "" {
		b.WriteString("\n" + errorStyle.Render(m.status) + "\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ move • enter select • / filter • → next • ← back • q quit"))
	return b.String()
}

// viewSteps renders the category breadcrumb with the current step marked.
func (m buildModel) viewSteps() string {
	u := m.stack.UseCase()
	steps := make([]string, 0, len(u.Categories))
	for i, c := range u.Categories {
		label := c.Name
		if _, ok := m.stack.Product(c.Name); ok {
			label = selectedStyle.Render("✓ " + label)
		} else if i == m.stack.CurrentCategoryIndex() {
			label = cursorStyle.Render(label)
		} else {
			label = dimStyle.Render(label)
		}
		steps = append(steps, label)
	}
	return strings.Join(steps, dimStyle.Render(" › "))
}

func (m buildModel) viewResults() string {
	var b strings.Builder
	if u := m.stack.UseCase(); u != nil {
		b.WriteString(titleStyle.Render(u.Name+" compatibility") + "\n\n")
	}
	for _, sel := range m.stack.Selected() {
		b.WriteString(fmt.Sprintf("  %-16s %s\n", sel.Category, sel.Product.DisplayName()))
	}
	b.WriteString("\n")

	products := make([]models.Product, 0, len(m.stack.Selected()))
	for _, sel := range m.stack.Selected() {
		products = append(products, sel.Product)
	}
	b.WriteString(renderReport(products, m.stack.Report()))

	switch {
	case m.summarizing:
		b.WriteString("\n" + m.spinner.View() + " Asking the advisor...\n")
	case m.summaryErr != nil:
		b.WriteString("\n" + errorStyle.Render(m.summaryErr.Error()) + "\n")
	case m.summary != "":
		b.WriteString("\n" + m.summary + "\n")
	}

	help := "← back • r start over • q quit"
	if m.advisor != nil {
		help = "s summarize • " + help
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

// runTUI runs the interactive builder. With a use case id the picker is
// skipped. The final report is printed once the program exits.
func runTUI(ctx context.Context, a *app, useCaseID string) error {
	logging.Silence()

	m := newBuildModel(ctx, a.catalog, a.useCases.All(), a.cfg.Catalog.DefaultLimit, a.advisor)
	if useCaseID != "" {
		tpl, err := a.useCases.Get(useCaseID)
		if err != nil {
			return err
		}
		m.start(tpl)
	}

	result, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	final, ok := result.(buildModel)
	if !ok || final.phase != phaseResults {
		return nil
	}
	products := make([]models.Product, 0)
	for _, sel := range final.stack.Selected() {
		products = append(products, sel.Product)
	}
	fmt.Print(renderReport(products, final.stack.Report()))
	return nil
}
