package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/pulsehub/scheduler/internal/sprint"
	"github.com/pulsehub/scheduler/internal/taskcatalog"
)

var (
	app    = kingpin.New("schedulerctl", "Command line client for the sprint scheduler")
	addr   = app.Flag("addr", "Scheduler base URL").Default("http://localhost:3100").String()
	apiKey = app.Flag("api-key", "API key").Envar("SCHEDULER_API_KEY").Required().String()

	listCmd     = app.Command("list", "List sprints")
	listAccount = listCmd.Flag("account", "Account ID").Required().String()
	listProject = listCmd.Flag("project", "Filter by project ID").String()
	listStatus  = listCmd.Flag("status", "Filter by status").String()

	showCmd = app.Command("show", "Show one sprint")
	showID  = showCmd.Arg("id", "Sprint ID").Required().String()

	createCmd  = app.Command("create", "Create a sprint from a YAML file")
	createFile = createCmd.Flag("file", "Sprint definition file").Short('f').Required().String()

	deleteCmd = app.Command("delete", "Delete a sprint")
	deleteID  = deleteCmd.Arg("id", "Sprint ID").Required().String()

	tasksCmd     = app.Command("tasks", "List tasks available for planning")
	tasksAccount = tasksCmd.Flag("account", "Account ID").Required().String()
	tasksProject = tasksCmd.Flag("project", "Project ID").Required().String()

	metricsCmd = app.Command("metrics", "Show sprint metrics")
	metricsID  = metricsCmd.Arg("id", "Sprint ID").Required().String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	c := &client{base: *addr, apiKey: *apiKey, http: &http.Client{Timeout: 30 * time.Second}}

	var err error
	switch command {
	case listCmd.FullCommand():
		err = runList(c)
	case showCmd.FullCommand():
		err = runShow(c, *showID)
	case createCmd.FullCommand():
		err = runCreate(c, *createFile)
	case deleteCmd.FullCommand():
		err = c.do(http.MethodDelete, "/api/sprints/"+*deleteID, nil, nil)
	case tasksCmd.FullCommand():
		err = runTasks(c)
	case metricsCmd.FullCommand():
		err = runMetrics(c, *metricsID)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "schedulerctl: %v\n", err)
		os.Exit(1)
	}
}

type client struct {
	base   string
	apiKey string
	http   *http.Client
}

func (c *client) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("%s (%s)", apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func runList(c *client) error {
	q := url.Values{"account_id": {*listAccount}}
	if *listProject != "" {
		q.Set("project_id", *listProject)
	}
	if *listStatus != "" {
		q.Set("status", *listStatus)
	}

	var sprints []*sprint.Sprint
	if err := c.do(http.MethodGet, "/api/sprints?"+q.Encode(), nil, &sprints); err != nil {
		return err
	}
	for _, sp := range sprints {
		printSprintLine(sp)
	}
	return nil
}

func runShow(c *client, id string) error {
	var sp sprint.Sprint
	if err := c.do(http.MethodGet, "/api/sprints/"+id, nil, &sp); err != nil {
		return err
	}
	printSprintLine(&sp)
	if sp.Goal != "" {
		fmt.Printf("  goal: %s\n", sp.Goal)
	}
	for _, a := range sp.Tasks {
		title := a.TaskID
		if a.Task != nil {
			title = a.Task.Title
		}
		hours := "-"
		if a.PlannedHours != nil {
			hours = fmt.Sprintf("%dh", *a.PlannedHours)
		}
		fmt.Printf("  [%s] %s (%s)\n", a.Status, title, hours)
	}
	for _, ce := range sp.Capacities {
		fmt.Printf("  capacity %s week %s: %dh\n", ce.UserID, ce.WeekStart, ce.Hours)
	}
	return nil
}

func runCreate(c *client, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	// The file uses the same field names as the JSON API, so decode it
	// generically and let the request marshal handle the rest.
	var in map[string]any
	if err := yaml.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}

	var sp sprint.Sprint
	if err := c.do(http.MethodPost, "/api/sprints", in, &sp); err != nil {
		return err
	}
	color.Green("created sprint %s", sp.ID)
	return nil
}

func runTasks(c *client) error {
	q := url.Values{"account_id": {*tasksAccount}, "project_id": {*tasksProject}}
	var tasks []*taskcatalog.TaskSummary
	if err := c.do(http.MethodGet, "/api/sprints/available-tasks?"+q.Encode(), nil, &tasks); err != nil {
		return err
	}
	for _, t := range tasks {
		fmt.Printf("%s  %-12s %s\n", t.ID, t.Status, t.Title)
	}
	return nil
}

func runMetrics(c *client, id string) error {
	var m sprint.Metrics
	if err := c.do(http.MethodGet, "/api/sprints/"+id+"/metrics", nil, &m); err != nil {
		return err
	}
	fmt.Printf("committed: %dh (%.1f pts)\n", m.CommittedHours, m.CommittedPoints)
	fmt.Printf("capacity:  %dh\n", m.TotalCapacityHours)
	if m.RemainingHours < 0 {
		color.Red("remaining: %dh (over-committed)", m.RemainingHours)
	} else {
		color.Green("remaining: %dh", m.RemainingHours)
	}
	return nil
}

func printSprintLine(sp *sprint.Sprint) {
	status := sp.Status
	line := fmt.Sprintf("%s  %-8s %s  %s..%s", sp.ID, status, sp.Name, sp.StartsAt, sp.EndsAt)
	switch status {
	case sprint.StatusActive:
		color.Green("%s", line)
	case sprint.StatusClosed:
		color.New(color.Faint).Printf("%s\n", line)
	default:
		fmt.Println(line)
	}
}
