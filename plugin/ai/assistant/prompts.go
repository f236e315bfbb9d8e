package assistant

import (
	"fmt"
	"strings"

	"github.com/lifetales/lifetales/plugin/ai/contextstore"
	"github.com/lifetales/lifetales/plugin/ai/llm"
	"github.com/lifetales/lifetales/store"
)

// persona is the assistant's standing instruction for every exchange.
const persona = `You are a warm, curious memoir companion. You help people remember
and record their life stories. Ask gentle follow-up questions about the
details that matter: who was there, where it happened, when it happened,
and how it felt. Keep replies short, specific to the story at hand, and
never invent details the storyteller has not shared.`

// greetingMessage is the fixed first message of a session. The greeting
// path never calls the provider.
const greetingMessage = `Hi, I'm here to help you bring this memory to life. Tell me more
about what happened, or pick one of the questions below to get started.`

// storyRevisionInstruction drives the update-story mode.
const storyRevisionInstruction = `Rewrite the story below so it incorporates the new details from the
recent conversation. Keep the storyteller's voice and only add what the
conversation actually established. Return only the revised story text.`

// buildSendMessages assembles the provider transcript for one exchange:
// persona, story framing, conversational context, recent turns, then the
// new user text.
func buildSendMessages(story *store.Story, sc *contextstore.StoredContext, recent []Message, userText string) []llm.Message {
	messages := []llm.Message{llm.SystemMessage(persona)}

	var framing strings.Builder
	framing.WriteString("The storyteller is working on this story:\n")
	if story.Title != "" {
		fmt.Fprintf(&framing, "Title: %s\n", story.Title)
	}
	if story.Year != 0 {
		fmt.Fprintf(&framing, "Year: %d\n", story.Year)
	}
	if len(story.Tags) > 0 {
		fmt.Fprintf(&framing, "Tags: %s\n", strings.Join(story.Tags, ", "))
	}
	if story.Content != "" {
		fmt.Fprintf(&framing, "Story so far:\n%s\n", story.Content)
	}
	if summary := contextSummary(sc); summary != "" {
		framing.WriteString(summary)
	}
	messages = append(messages, llm.SystemMessage(framing.String()))

	for _, msg := range recent {
		if msg.IsGreeting {
			continue
		}
		switch msg.Sender {
		case store.ChatSenderUser:
			messages = append(messages, llm.UserMessage(msg.Content))
		case store.ChatSenderAI:
			messages = append(messages, llm.AssistantMessage(msg.Content))
		}
	}

	return append(messages, llm.UserMessage(userText))
}

// contextSummary renders what the conversation has established so far.
func contextSummary(sc *contextstore.StoredContext) string {
	if sc == nil {
		return ""
	}
	var b strings.Builder
	details := sc.Context.CurrentStoryDetails
	if details.MainTopic != "" {
		fmt.Fprintf(&b, "Main topic: %s\n", details.MainTopic)
	}
	if details.Timeframe != "" {
		fmt.Fprintf(&b, "Timeframe: %s\n", details.Timeframe)
	}
	if len(details.People) > 0 {
		fmt.Fprintf(&b, "People mentioned: %s\n", strings.Join(details.People, ", "))
	}
	if len(details.Locations) > 0 {
		fmt.Fprintf(&b, "Places mentioned: %s\n", strings.Join(details.Locations, ", "))
	}
	if len(sc.Context.RecentTopics) > 0 {
		fmt.Fprintf(&b, "Recent topics: %s\n", strings.Join(sc.Context.RecentTopics, ", "))
	}
	if b.Len() == 0 {
		return ""
	}
	return "What the conversation has established:\n" + b.String()
}

// buildRevisionMessages assembles the update-story prompt from the story
// body and the trailing conversation window.
func buildRevisionMessages(storyContent string, recent []Message) []llm.Message {
	var transcript strings.Builder
	for _, msg := range recent {
		if msg.IsGreeting {
			continue
		}
		fmt.Fprintf(&transcript, "%s: %s\n", msg.Sender, msg.Content)
	}

	prompt := fmt.Sprintf("%s\n\nStory:\n%s\n\nRecent conversation:\n%s",
		storyRevisionInstruction, storyContent, transcript.String())

	return []llm.Message{
		llm.SystemMessage(persona),
		llm.UserMessage(prompt),
	}
}
