// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it opens the store, builds the
// reconciliation engine, and injects both into the tool handlers. No
// business logic lives here — only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mwhitford/handoff/internal/continuity"
	"github.com/mwhitford/handoff/internal/prompts"
	"github.com/mwhitford/handoff/internal/resources"
	"github.com/mwhitford/handoff/internal/store"
	"github.com/mwhitford/handoff/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
//
// The returned cleanup function closes the store's database connection
// and must be called on shutdown (typically via defer). It is always
// non-nil and safe to call.
func New(dbPath string) (*server.MCPServer, func(), error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening store: %w", err)
	}
	engine := continuity.NewEngine(st)

	s := server.NewMCPServer(
		"handoff",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// Session lifecycle
	startSession := tools.NewStartSessionTool(st, engine)
	s.AddTool(startSession.Definition(), startSession.Handle)

	endSession := tools.NewEndSessionTool(st, engine)
	s.AddTool(endSession.Definition(), endSession.Handle)

	listSessions := tools.NewListSessionsTool(st)
	s.AddTool(listSessions.Definition(), listSessions.Handle)

	// Projects
	createProject := tools.NewCreateProjectTool(st, engine)
	s.AddTool(createProject.Definition(), createProject.Handle)

	listProjects := tools.NewListProjectsTool(st)
	s.AddTool(listProjects.Definition(), listProjects.Handle)

	getProject := tools.NewGetProjectTool(st)
	s.AddTool(getProject.Definition(), getProject.Handle)

	updateProject := tools.NewUpdateProjectTool(st)
	s.AddTool(updateProject.Definition(), updateProject.Handle)

	// Tasks
	createTask := tools.NewCreateTaskTool(st, engine)
	s.AddTool(createTask.Definition(), createTask.Handle)

	updateTask := tools.NewUpdateTaskTool(st, engine)
	s.AddTool(updateTask.Definition(), updateTask.Handle)

	listTasks := tools.NewListTasksTool(st)
	s.AddTool(listTasks.Definition(), listTasks.Handle)

	nextTasks := tools.NewNextTasksTool(st)
	s.AddTool(nextTasks.Definition(), nextTasks.Handle)

	deleteTask := tools.NewDeleteTaskTool(st)
	s.AddTool(deleteTask.Definition(), deleteTask.Handle)

	taskHistory := tools.NewTaskHistoryTool(st)
	s.AddTool(taskHistory.Definition(), taskHistory.Handle)

	// Decisions and notes
	logDecision := tools.NewLogDecisionTool(st, engine)
	s.AddTool(logDecision.Definition(), logDecision.Handle)

	listDecisions := tools.NewListDecisionsTool(st)
	s.AddTool(listDecisions.Definition(), listDecisions.Handle)

	addNote := tools.NewAddNoteTool(st, engine)
	s.AddTool(addNote.Definition(), addNote.Handle)

	listNotes := tools.NewListNotesTool(st)
	s.AddTool(listNotes.Definition(), listNotes.Handle)

	// Project context
	setContext := tools.NewSetContextTool(st, engine)
	s.AddTool(setContext.Definition(), setContext.Handle)

	getContext := tools.NewGetContextTool(st)
	s.AddTool(getContext.Definition(), getContext.Handle)

	deleteContext := tools.NewDeleteContextTool(st)
	s.AddTool(deleteContext.Definition(), deleteContext.Handle)

	// Prompts
	resume := prompts.NewResumePrompt()
	s.AddPrompt(resume.Definition(), resume.Handle)

	wrapUp := prompts.NewWrapUpPrompt()
	s.AddPrompt(wrapUp.Definition(), wrapUp.Handle)

	// Resources
	res := resources.NewHandler(st)
	s.AddResource(res.ProjectsResource(), res.HandleProjects)
	s.AddResource(res.BriefResource(), res.HandleBrief)

	cleanup := func() { _ = st.Close() }
	return s, cleanup, nil
}

// serverInstructions is surfaced to connecting clients as usage guidance.
func serverInstructions() string {
	return `Handoff is persistent memory across coding sessions. Nothing carries
over between conversations unless it is recorded here.

Workflow:
1. Call start_session when a conversation about a project begins. It returns
   where the last session left off, what changed since, active and blocked
   tasks, recent decisions, and stored project facts.
2. Record as you go: create_task / update_task for work items, log_decision
   when a technical choice is made, add_note for anything worth remembering,
   set_context for durable facts (deploy process, conventions, constraints).
3. Call end_session before the conversation ends with a summary and next
   steps written for a reader who remembers nothing.

Tasks have short ids like "hnd-3" (project slug + number) that work in every
tool that takes a task. Most tools default to the most recently active
project, so "project" can usually be omitted.

If work was recorded but no session summary was, the next start_session
synthesizes a catch-up session marked [auto] so the gap is never silent.`
}
