// Command validate_doc uploads a timetable document to a running API
// instance and prints its validation report. Exits non-zero when the
// document has blocking errors, which makes it usable as a CI gate.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type versionData struct {
	ID string `json:"id"`
}

type validationData struct {
	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`
	InfoCount    int `json:"info_count"`
	Issues       []struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		Title string `json:"title"`
	} `json:"issues"`
}

func main() {
	var (
		base    string
		prefix  string
		orgID   string
		project string
		docPath string
		label   string
		token   string
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API route prefix")
	flag.StringVar(&orgID, "org", "", "Organization ID")
	flag.StringVar(&project, "project", "", "Project ID")
	flag.StringVar(&docPath, "doc", "", "Path to a timetable document JSON file")
	flag.StringVar(&label, "label", "validate_doc upload", "Label for the created version")
	flag.StringVar(&token, "token", "", "Bearer token (optional)")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Parse()

	if orgID == "" || project == "" || docPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	document, err := os.ReadFile(docPath)
	if err != nil {
		log.Fatalf("failed to read document: %v", err)
	}
	if !json.Valid(document) {
		log.Fatalf("%s is not valid JSON", docPath)
	}

	client := &http.Client{Timeout: timeout}
	root := strings.TrimRight(base, "/") + prefix

	versionID, err := createVersion(client, root, orgID, project, label, token, document)
	if err != nil {
		log.Fatalf("failed to create version: %v", err)
	}
	fmt.Printf("created version %s\n", versionID)

	report, err := fetchValidation(client, root, orgID, project, versionID, token)
	if err != nil {
		log.Fatalf("failed to fetch validation: %v", err)
	}

	printReport(report)
	if report.ErrorCount > 0 {
		os.Exit(1)
	}
}

func createVersion(client *http.Client, root, orgID, project, label, token string, document json.RawMessage) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"label":    label,
		"document": document,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/organizations/%s/projects/%s/versions", root, orgID, project)
	data, err := doRequest(client, http.MethodPost, url, token, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	var version versionData
	if err := json.Unmarshal(data, &version); err != nil {
		return "", err
	}
	if version.ID == "" {
		return "", fmt.Errorf("response carried no version id")
	}
	return version.ID, nil
}

func fetchValidation(client *http.Client, root, orgID, project, versionID, token string) (*validationData, error) {
	url := fmt.Sprintf("%s/organizations/%s/projects/%s/versions/%s/validation", root, orgID, project, versionID)
	data, err := doRequest(client, http.MethodGet, url, token, nil)
	if err != nil {
		return nil, err
	}

	var report validationData
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func doRequest(client *http.Client, method, url, token string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s %s: status %d, unparseable body", method, url, resp.StatusCode)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("%s %s: %s (%s)", method, url, env.Error.Message, env.Error.Code)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s %s: status %d", method, url, resp.StatusCode)
	}
	return env.Data, nil
}

func printReport(report *validationData) {
	fmt.Println("Validation Report")
	fmt.Println("=================")
	fmt.Printf("errors: %d, warnings: %d, info: %d\n", report.ErrorCount, report.WarningCount, report.InfoCount)
	for _, issue := range report.Issues {
		fmt.Printf("[%s] %s %s\n", strings.ToUpper(issue.Type), issue.ID, issue.Title)
	}
}
