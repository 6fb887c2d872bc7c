package webui

import (
	"github.com/anemonelab/agenthub/core/conversations"
	"github.com/anemonelab/agenthub/core/types"
	"github.com/anemonelab/agenthub/pkg/utils"
	"github.com/chasefleming/elem-go"
	"github.com/chasefleming/elem-go/attrs"
)

func chatDiv(m conversations.Message) string {
	color := "gray"
	switch {
	case m.Error:
		color = "red"
	case m.Role == conversations.RoleUser:
		color = "blue"
	}
	return elem.Div(attrs.Props{
		attrs.ID:    "msg-" + m.ID,
		attrs.Class: "p-2 my-2 rounded bg-" + color + "-600 " + m.Role,
	}, elem.Text(m.Content)).Render()
}

// skillBadges renders the skill list of an agent.
func skillBadges(list []types.Skill) string {
	if len(list) == 0 {
		return elem.P(attrs.Props{attrs.Class: "text-gray-400"}, elem.Text("No skills")).Render()
	}
	items := make([]elem.Node, 0, len(list))
	for _, s := range list {
		items = append(items, elem.Li(attrs.Props{attrs.Class: "skill"},
			elem.A(attrs.Props{attrs.Href: "/skill/" + s.ObjectID}, elem.Text(s.Name)),
			elem.Span(attrs.Props{attrs.Class: "text-gray-400"}, elem.Text(" "+utils.ShortID(s.ObjectID))),
		))
	}
	return elem.Ul(attrs.Props{attrs.Class: "skills"}, items...).Render()
}
