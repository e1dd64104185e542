package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ThreeDotsLabs/postboard"
)

const (
	titleField = iota
	bodyField
)

// Form edits a new post or an existing one.
type Form struct {
	// postID is nil when creating a post.
	postID *int

	inputs  []textinput.Model
	focused int
	err     error
}

func NewCreateForm() Form {
	return newForm(nil, "", "")
}

func NewEditForm(post postboard.Post) Form {
	postID := post.ID
	return newForm(&postID, post.Title, post.Body)
}

func newForm(postID *int, title, body string) Form {
	titleInput := textinput.New()
	titleInput.Prompt = "Title: "
	titleInput.Placeholder = "title"
	titleInput.Width = 60
	titleInput.SetValue(title)

	bodyInput := textinput.New()
	bodyInput.Prompt = "Body:  "
	bodyInput.Placeholder = "body"
	bodyInput.Width = 60
	bodyInput.SetValue(body)

	f := Form{
		postID: postID,
		inputs: []textinput.Model{titleInput, bodyInput},
	}
	f.inputs[titleField].Focus()

	return f
}

func (f Form) Editing() bool {
	return f.postID != nil
}

func (f Form) Input() postboard.PostInput {
	return postboard.NewPostInput(f.inputs[titleField].Value(), f.inputs[bodyField].Value())
}

func (f Form) nextField() Form {
	f.inputs[f.focused].Blur()
	f.focused = (f.focused + 1) % len(f.inputs)
	f.inputs[f.focused].Focus()
	return f
}

func (f Form) updateInput(msg tea.Msg) (Form, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return f, cmd
}

func (f Form) View() string {
	title := "New post"
	if f.Editing() {
		title = fmt.Sprintf("Edit post %d", *f.postID)
	}

	out := titleStyle.Render(title) + "\n\n"
	for _, input := range f.inputs {
		out += input.View() + "\n"
	}

	if f.err != nil {
		out += "\n" + inlineErrorStyle.Render(f.err.Error()) + "\n"
	}

	out += "\n" + helpStyle.Render("tab switch field • enter save • esc cancel")

	return formStyle.Render(out)
}
