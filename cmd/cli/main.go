package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
)

const sessionCookieName = "token"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "property":
		handleProperty(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: drukstay auth <register|login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "register":
		registerUser(args[1:])
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleProperty(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: drukstay property <list|available|add|rm|toggle>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listProperties()
	case "available":
		listAvailable(args[1:])
	case "add":
		addProperty(args[1:])
	case "rm":
		removeProperty(args[1:])
	case "toggle":
		toggleProperty(args[1:])
	default:
		fmt.Printf("unknown property command: %s\n", subCmd)
	}
}

// Auth commands
func registerUser(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	role := fs.String("role", "TENANT", "TENANT or OWNER")

	fs.Parse(args)

	if *name == "" || *email == "" || *password == "" {
		fmt.Println("Error: name, email, and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{
		"name":     *name,
		"email":    *email,
		"password": *password,
		"role":     *role,
	}

	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/api/register", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == http.StatusCreated {
		fmt.Printf("✓ Registered: %s (%s)\n", *email, strings.ToUpper(*role))
	} else {
		fmt.Printf("✗ Registration failed: %v\n", result["message"])
	}
}

func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"email": *email, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/api/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)
		fmt.Printf("✗ Login failed: %v\n", result["message"])
		return
	}

	// The session lives in an httpOnly cookie; persist it for later requests
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName {
			saveToken(c.Value)
			fmt.Printf("✓ Logged in as: %s\n", *email)
			return
		}
	}
	fmt.Println("✗ Login response carried no session cookie")
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/api/user/me", nil)
	addSessionCookie(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Println("Not logged in")
		return
	}

	var profile map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&profile)
	fmt.Printf("✓ %v <%v> (%v)\n", profile["name"], profile["email"], profile["role"])
}

// Property commands
func listProperties() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/api/properties", nil)
	addSessionCookie(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	printPropertyTable(resp)
}

func listAvailable(args []string) {
	fs := flag.NewFlagSet("available", flag.ExitOnError)
	minPrice := fs.String("min-price", "", "minimum monthly price")
	maxPrice := fs.String("max-price", "", "maximum monthly price")
	location := fs.String("location", "", "location substring")
	amenities := fs.String("amenities", "", "comma-separated amenities (any match)")

	fs.Parse(args)

	url := getAPIURL() + "/api/properties/available"
	params := []string{}
	if *minPrice != "" {
		params = append(params, "minPrice="+*minPrice)
	}
	if *maxPrice != "" {
		params = append(params, "maxPrice="+*maxPrice)
	}
	if *location != "" {
		params = append(params, "location="+*location)
	}
	if *amenities != "" {
		params = append(params, "amenities="+*amenities)
	}
	if len(params) > 0 {
		url += "?" + strings.Join(params, "&")
	}

	resp, err := http.Get(url)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	printPropertyTable(resp)
}

func addProperty(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	title := fs.String("title", "", "listing title")
	location := fs.String("location", "", "location")
	price := fs.Float64("price", 0, "monthly price in Nu")
	amenities := fs.String("amenities", "", "comma-separated amenities")

	fs.Parse(args)

	if *title == "" || *location == "" {
		fmt.Println("Error: title and location are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{
		"title":    *title,
		"location": *location,
		"price":    *price,
	}
	if *amenities != "" {
		payload["amenities"] = strings.Split(*amenities, ",")
	}

	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+"/api/properties", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addSessionCookie(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == http.StatusCreated {
		fmt.Printf("✓ Property created: %v\n", result["id"])
	} else {
		fmt.Printf("✗ Create failed: %v\n", result["message"])
	}
}

func removeProperty(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: drukstay property rm <property-id>")
		return
	}

	req, _ := http.NewRequest("DELETE", getAPIURL()+"/api/properties/"+args[0], nil)
	addSessionCookie(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == http.StatusOK {
		fmt.Println("✓ Property deleted")
	} else {
		fmt.Printf("✗ Delete failed: %v\n", result["message"])
	}
}

func toggleProperty(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: drukstay property toggle <property-id>")
		return
	}

	req, _ := http.NewRequest("PATCH", getAPIURL()+"/api/properties/"+args[0]+"/availability", nil)
	addSessionCookie(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == http.StatusOK {
		fmt.Printf("✓ Availability: %v\n", result["availability"])
	} else {
		fmt.Printf("✗ Toggle failed: %v\n", result["message"])
	}
}

func printPropertyTable(resp *http.Response) {
	if resp.StatusCode != http.StatusOK {
		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)
		fmt.Printf("✗ Request failed: %v\n", result["message"])
		return
	}

	var properties []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&properties)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tLOCATION\tPRICE\tAVAILABILITY")
	for _, p := range properties {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n",
			p["id"], p["title"], p["location"], p["price"], p["availability"])
	}
	w.Flush()
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("DRUKSTAY_API"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.drukstay/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.drukstay", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addSessionCookie(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}
}

func printUsage() {
	fmt.Print(`DrukStay CLI

Usage:
  drukstay <command> [options]

Commands:
  auth      Account operations (register, login, logout, who)
  property  Listing operations (list, available, add, rm, toggle)
  help      Show this help message

Environment Variables:
  DRUKSTAY_API    API endpoint (default: http://localhost:8080)

Examples:
  drukstay auth register -name Pema -email pema@drukstay.bt -password secret -role OWNER
  drukstay auth login -email pema@drukstay.bt -password secret
  drukstay property add -title "Riverside Flat" -location Thimphu -price 18000
  drukstay property available -min-price 10000 -max-price 20000
`)
}
