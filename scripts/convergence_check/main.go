// Command convergence_check verifies that two running instances sharing one
// device backend end up listing the same classrooms. It creates a marker
// classroom on the first instance, waits until the second lists it, deletes
// it again and waits for the removal to propagate back.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

type classroom struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type instance struct {
	base   string
	client *http.Client
}

func main() {
	var (
		baseA   string
		baseB   string
		prefix  string
		timeout time.Duration
		wait    time.Duration
	)

	flag.StringVar(&baseA, "a", "http://localhost:8080", "First instance base URL")
	flag.StringVar(&baseB, "b", "http://localhost:8081", "Second instance base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API prefix")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.DurationVar(&wait, "wait", 10*time.Second, "How long to wait for propagation")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	a := instance{base: strings.TrimRight(baseA, "/") + prefix, client: client}
	b := instance{base: strings.TrimRight(baseB, "/") + prefix, client: client}

	marker := classroom{Name: "convergence-marker", Subject: fmt.Sprintf("marker-%d", time.Now().UnixNano())}
	created, err := a.create(marker)
	if err != nil {
		log.Fatalf("create marker on %s: %v", a.base, err)
	}
	fmt.Printf("[A] created %d %s/%s\n", created.ID, created.Name, created.Subject)

	start := time.Now()
	if err := waitFor(wait, func() (bool, error) { return b.has(created.ID) }); err != nil {
		report(a, b)
		log.Fatalf("marker never reached B: %v", err)
	}
	fmt.Printf("[B] saw marker after %s\n", time.Since(start).Round(time.Millisecond))

	if err := b.delete(created.ID); err != nil {
		log.Fatalf("delete marker on %s: %v", b.base, err)
	}
	start = time.Now()
	if err := waitFor(wait, func() (bool, error) {
		found, err := a.has(created.ID)
		return !found, err
	}); err != nil {
		report(a, b)
		log.Fatalf("marker deletion never reached A: %v", err)
	}
	fmt.Printf("[A] saw deletion after %s\n", time.Since(start).Round(time.Millisecond))

	if !report(a, b) {
		os.Exit(1)
	}
}

func (i instance) list() ([]classroom, error) {
	resp, err := i.client.Get(i.base + "/classrooms")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return decodeList(resp)
}

func (i instance) has(id int64) (bool, error) {
	list, err := i.list()
	if err != nil {
		return false, err
	}
	for _, c := range list {
		if c.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (i instance) create(c classroom) (*classroom, error) {
	payload, err := json.Marshal(map[string]string{"name": c.Name, "subject": c.Subject})
	if err != nil {
		return nil, err
	}
	resp, err := i.client.Post(i.base+"/classrooms", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	var out classroom
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (i instance) delete(id int64) error {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/classrooms/%d", i.base, id), nil)
	if err != nil {
		return err
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func decodeList(resp *http.Response) ([]classroom, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	var list []classroom
	if err := json.Unmarshal(env.Data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func waitFor(limit time.Duration, check func() (bool, error)) error {
	deadline := time.Now().Add(limit)
	var lastErr error
	for time.Now().Before(deadline) {
		ok, err := check()
		if err == nil && ok {
			return nil
		}
		lastErr = err
		time.Sleep(100 * time.Millisecond)
	}
	if lastErr != nil {
		return lastErr
	}
	return errors.New("timed out")
}

// sameClassrooms compares two listings by (id, name, subject), ignoring order.
func sameClassrooms(a, b []classroom) bool {
	if len(a) != len(b) {
		return false
	}
	keys := func(list []classroom) []string {
		out := make([]string, len(list))
		for i, c := range list {
			out[i] = fmt.Sprintf("%d|%s|%s", c.ID, c.Name, c.Subject)
		}
		sort.Strings(out)
		return out
	}
	ka, kb := keys(a), keys(b)
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

func report(a, b instance) bool {
	fmt.Println("Convergence Report")
	fmt.Println("==================")
	listA, errA := a.list()
	listB, errB := b.list()
	if errA != nil || errB != nil {
		fmt.Printf("  A error: %v\n  B error: %v\n", errA, errB)
		return false
	}
	match := sameClassrooms(listA, listB)
	fmt.Printf("  A: %d classrooms | B: %d classrooms | match: %t\n", len(listA), len(listB), match)
	return match
}
