// Package ui is the terminal interface of postboard: a list of posts and a form to add or edit one.
package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ThreeDotsLabs/postboard"
	"github.com/ThreeDotsLabs/postboard/store"
)

var dialogActions = []string{"Cancel", "Confirm"}

const listHelp = "n new • enter edit • d delete • r refresh • x dismiss error • q quit"

// PostStore is the part of store.Store used by the UI.
type PostStore interface {
	FetchPosts() string
	CreatePost(title, body string) string
	UpdatePost(postID int, title, body string) string
	DeletePost(postID int) string
	DismissError() string
	State() store.State
}

type StateUpdated struct {
	State store.State
}

// StatesClosed is sent when the store stops sending states.
type StatesClosed struct{}

type DialogResult struct{}

type Model struct {
	store  PostStore
	states <-chan store.State

	table        table.Model
	posts        []postboard.Post
	errorMessage string

	form          *Form
	currentDialog *Dialog
}

type Dialog struct {
	Prompt  string
	Action  func() tea.Msg
	Choice  int
	Running bool
}

func NewModel(postStore PostStore, states <-chan store.State) Model {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Title", Width: 40},
		{Title: "Body", Width: 60},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	t.SetStyles(tableStyles())

	m := Model{
		store:  postStore,
		states: states,
		table:  t,
	}

	return m.setState(postStore.State())
}

func (m Model) FetchPosts() tea.Cmd {
	return func() tea.Msg {
		m.store.FetchPosts()
		return nil
	}
}

func (m Model) WaitForState() tea.Cmd {
	return func() tea.Msg {
		state, ok := <-m.states
		if !ok {
			return StatesClosed{}
		}
		return StateUpdated{State: state}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.FetchPosts(),
		m.WaitForState(),
	)
}

func (m Model) setState(state store.State) Model {
	rows := make([]table.Row, len(state.Posts))
	for i, post := range state.Posts {
		rows[i] = table.Row{
			strconv.Itoa(post.ID),
			post.Title,
			strings.Join(strings.Fields(post.Body), " "),
		}
	}
	m.table.SetRows(rows)

	if len(rows) > 0 && m.table.Cursor() >= len(rows) {
		m.table.SetCursor(len(rows) - 1)
	}

	m.posts = state.Posts
	m.errorMessage = state.ErrorMessage

	return m
}

func (m Model) selectedPost() (postboard.Post, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.posts) {
		return postboard.Post{}, false
	}
	return m.posts[c], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateUpdated:
		m = m.setState(msg.State)
		return m, m.WaitForState()
	case StatesClosed:
		return m, tea.Quit
	case tea.WindowSizeMsg:
		if msg.Height > 10 {
			m.table.SetHeight(msg.Height - 8)
		}
		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	} else if m.currentDialog != nil {
		return m.updateDialog(msg)
	}

	return m.updateList(msg)
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "n":
			form := NewCreateForm()
			m.form = &form
			return m, nil
		case "e", "enter":
			post, ok := m.selectedPost()
			if !ok {
				return m, nil
			}
			form := NewEditForm(post)
			m.form = &form
			return m, nil
		case "d", "delete":
			post, ok := m.selectedPost()
			if !ok {
				return m, nil
			}
			m.currentDialog = &Dialog{
				Prompt: fmt.Sprintf("Delete post %d %q?", post.ID, post.Title),
				Action: func() tea.Msg {
					m.store.DeletePost(post.ID)
					return DialogResult{}
				},
			}
			return m, nil
		case "r":
			return m, m.FetchPosts()
		case "x":
			if m.errorMessage == "" {
				return m, nil
			}
			return m, func() tea.Msg {
				m.store.DismissError()
				return nil
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateDialog(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc", "backspace":
			m.currentDialog = nil
		case "h", "left":
			m.currentDialog.Choice--
			if m.currentDialog.Choice < 0 {
				m.currentDialog.Choice = 0
			}
		case "l", "right", "tab":
			m.currentDialog.Choice++
			if m.currentDialog.Choice >= len(dialogActions) {
				m.currentDialog.Choice = len(dialogActions) - 1
			}
		case "y":
			m.currentDialog.Running = true
			return m, m.currentDialog.Action
		case " ", "enter":
			switch m.currentDialog.Choice {
			case 0:
				m.currentDialog = nil
			case 1:
				m.currentDialog.Running = true
				return m, m.currentDialog.Action
			}
		}
	case DialogResult:
		m.currentDialog = nil
	}

	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form := *m.form

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.form = nil
			return m, nil
		case "tab", "shift+tab":
			form = form.nextField()
			m.form = &form
			return m, nil
		case "enter":
			return m.submit(form)
		}
	}

	form, cmd := form.updateInput(msg)
	m.form = &form
	return m, cmd
}

// submit leaves the form without waiting for the request to finish.
func (m Model) submit(form Form) (tea.Model, tea.Cmd) {
	input := form.Input()
	if err := input.Validate(); err != nil {
		form.err = err
		m.form = &form
		return m, nil
	}

	m.form = nil

	if form.Editing() {
		postID := *form.postID
		return m, func() tea.Msg {
			m.store.UpdatePost(postID, input.Title, input.Body)
			return nil
		}
	}

	return m, func() tea.Msg {
		m.store.CreatePost(input.Title, input.Body)
		return nil
	}
}

func (m Model) View() string {
	if m.form != nil {
		return m.form.View() + "\n"
	}

	out := baseStyle.Render(m.table.View()) + "\n"

	if m.errorMessage != "" {
		out += warningStyle.Render("Error: "+m.errorMessage) + "\n"
	}

	if m.currentDialog != nil {
		prompt := m.currentDialog.Prompt + "\n\n"

		if m.currentDialog.Running {
			prompt += "Deleting..."
		} else {
			for i, action := range dialogActions {
				style := buttonStyle
				if i == m.currentDialog.Choice {
					style = buttonSelectedStyle
				}

				prompt += style.MarginLeft(4).Render(action)
			}
		}

		out += dialogStyle.Render(prompt) + "\n"
	}

	out += "  " + helpStyle.Render(listHelp) + "\n"

	return out
}
