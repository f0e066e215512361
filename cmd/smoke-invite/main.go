// Command smoke-invite drives the invitation lifecycle against a running
// API: admin signs in, provisions an employer, the employer invites an
// employee, and the employee registers via the token. It exits non-zero on
// the first divergence.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

var client = &http.Client{Timeout: 10 * time.Second}

var baseURL = "http://localhost:8080"

func main() {
	if v := os.Getenv("PLATEWISE_API_URL"); v != "" {
		baseURL = v
	}
	adminEmail := os.Getenv("PLATEWISE_ADMIN_EMAIL")
	adminPassword := os.Getenv("PLATEWISE_ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("PLATEWISE_ADMIN_EMAIL and PLATEWISE_ADMIN_PASSWORD are required")
	}

	suffix := rand.New(rand.NewSource(time.Now().UnixNano())).Int31()

	// Admin signs in and provisions an employer.
	var adminSess struct {
		Token string `json:"token"`
	}
	call(http.MethodPost, "/v1/auth/signin", "", map[string]string{
		"email":    adminEmail,
		"password": adminPassword,
	}, http.StatusOK, &adminSess)

	employerEmail := fmt.Sprintf("smoke-owner-%d@example.com", suffix)
	employerPassword := fmt.Sprintf("smoke-pass-%d", suffix)
	var employer struct {
		ID string `json:"id"`
	}
	call(http.MethodPost, "/v1/employers", adminSess.Token, map[string]string{
		"email":           employerEmail,
		"password":        employerPassword,
		"restaurant_name": fmt.Sprintf("Smoke Diner %d", suffix),
	}, http.StatusCreated, &employer)

	// The employer signs in and invites an employee.
	var employerSess struct {
		Token string `json:"token"`
	}
	call(http.MethodPost, "/v1/auth/signin", "", map[string]string{
		"email":    employerEmail,
		"password": employerPassword,
	}, http.StatusOK, &employerSess)

	employeeEmail := fmt.Sprintf("smoke-hire-%d@example.com", suffix)
	var invitation struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	call(http.MethodPost, "/v1/invitations", employerSess.Token, map[string]string{
		"email": employeeEmail,
	}, http.StatusCreated, &invitation)

	// The token validates before use.
	call(http.MethodGet, "/v1/invitations/validate?token="+invitation.Token, "", nil, http.StatusOK, nil)

	// The employee registers with it.
	var employeeSess struct {
		Token   string `json:"token"`
		Profile struct {
			Role       string `json:"role"`
			EmployerID string `json:"employer_id"`
		} `json:"profile"`
	}
	call(http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"email":            employeeEmail,
		"password":         fmt.Sprintf("smoke-emp-%d", suffix),
		"invitation_token": invitation.Token,
	}, http.StatusCreated, &employeeSess)

	if employeeSess.Profile.Role != "employee" || employeeSess.Profile.EmployerID != employer.ID {
		log.Fatalf("unexpected employee profile: %+v", employeeSess.Profile)
	}

	// The token is single use.
	call(http.MethodGet, "/v1/invitations/validate?token="+invitation.Token, "", nil, http.StatusNotFound, nil)

	// The employee lands in the right area.
	var decision struct {
		Allow    bool   `json:"allow"`
		Redirect string `json:"redirect"`
	}
	call(http.MethodGet, "/v1/guard?area=profile", employeeSess.Token, nil, http.StatusOK, &decision)
	if !decision.Allow {
		log.Fatalf("employee denied its own area: %+v", decision)
	}
	call(http.MethodGet, "/v1/guard?area=admin", employeeSess.Token, nil, http.StatusOK, &decision)
	if decision.Allow || decision.Redirect != "/profile" {
		log.Fatalf("employee should bounce off admin to /profile: %+v", decision)
	}

	fmt.Printf("invitation smoke test passed: employer=%s invitation=%s\n", employer.ID, invitation.ID)
}

func call(method, path, token string, body any, wantStatus int, out any) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("%s %s: encode: %v", method, path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		log.Fatalf("%s %s: status %d, want %d: %s", method, path, resp.StatusCode, wantStatus, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			log.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
}
