package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"attendtrack/internal/client"
	"attendtrack/internal/config"
	"attendtrack/internal/validation"
)

func main() {
	// Define subcommands
	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	studentsCmd := flag.NewFlagSet("students", flag.ExitOnError)
	attendanceCmd := flag.NewFlagSet("attendance", flag.ExitOnError)
	markCmd := flag.NewFlagSet("mark", flag.ExitOnError)

	// Login flags
	loginUser := loginCmd.String("username", "", "Username or email (required)")
	loginPassword := loginCmd.String("password", "", "Password (default: $ATTENDANCE_PASSWORD)")

	// Roster flags
	studentsClass := studentsCmd.Int64("class", 0, "Class ID (required)")

	// Attendance flags
	attendanceClass := attendanceCmd.Int64("class", 0, "Class ID (required)")
	attendanceDate := attendanceCmd.String("date", "", "Date YYYY-MM-DD (default: today)")

	// Mark flags
	markClass := markCmd.Int64("class", 0, "Class ID (required)")
	markDate := markCmd.String("date", "", "Date YYYY-MM-DD (default: today)")
	markStudents := markCmd.String("students", "", "Comma-separated student IDs (required)")
	markStatus := markCmd.String("status", "present", "present, absent, late, excused or early_leave")
	markNotes := markCmd.String("notes", "", "Optional notes")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.LoadClient()
	api, err := client.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to configure client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "login":
		loginCmd.Parse(os.Args[2:])
		password := *loginPassword
		if password == "" {
			password = os.Getenv("ATTENDANCE_PASSWORD")
		}
		if *loginUser == "" || password == "" {
			fmt.Println("Error: -username and a password are required")
			loginCmd.PrintDefaults()
			os.Exit(1)
		}
		user, err := api.Login(ctx, *loginUser, password)
		exitOnError(err)
		log.Printf("Logged in as %s (%s)", user.Username, user.Role)

	case "logout":
		exitOnError(api.Logout(ctx))
		log.Println("Logged out")

	case "me":
		user, err := api.Me(ctx)
		exitOnError(err)
		printJSON(user)

	case "classes":
		classes, err := api.Classes(ctx)
		exitOnError(err)
		printJSON(classes)

	case "students":
		studentsCmd.Parse(os.Args[2:])
		requireClass(studentsCmd, *studentsClass)
		students, err := api.Students(ctx, *studentsClass)
		exitOnError(err)
		printJSON(students)

	case "attendance":
		attendanceCmd.Parse(os.Args[2:])
		requireClass(attendanceCmd, *attendanceClass)
		rows, err := api.Attendance(ctx, *attendanceClass, dateOrToday(*attendanceDate))
		exitOnError(err)
		printJSON(rows)

	case "mark":
		markCmd.Parse(os.Args[2:])
		requireClass(markCmd, *markClass)
		ids, err := parseIDs(*markStudents)
		if err != nil || len(ids) == 0 {
			fmt.Println("Error: -students must list one or more student IDs")
			markCmd.PrintDefaults()
			os.Exit(1)
		}
		date := dateOrToday(*markDate)
		marks := make([]client.Mark, 0, len(ids))
		for _, id := range ids {
			marks = append(marks, client.Mark{StudentID: id, ClassID: *markClass, Date: date, Status: *markStatus, Notes: *markNotes})
		}
		summary, err := api.Record(ctx, marks)
		exitOnError(err)
		printJSON(summary)

	case "probe":
		for _, result := range api.Probe(ctx) {
			if result.Reachable {
				fmt.Printf("%-40s reachable  %d  %s\n", result.Endpoint, result.StatusCode, result.ResponseTime.Round(time.Millisecond))
			} else {
				fmt.Printf("%-40s error      %s\n", result.Endpoint, result.Error)
			}
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func requireClass(cmd *flag.FlagSet, classID int64) {
	if classID <= 0 {
		fmt.Println("Error: -class flag is required")
		cmd.PrintDefaults()
		os.Exit(1)
	}
}

func dateOrToday(date string) string {
	if date == "" {
		return time.Now().Format(validation.DateLayout)
	}
	return date
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid student id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	var transportErr *client.TransportError
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		log.Fatalf("Session expired or invalid. Run 'attendctl login' again.")
	case errors.As(err, &transportErr):
		log.Fatalf("No API endpoint reachable: %v", err)
	default:
		log.Fatalf("Request failed: %v", err)
	}
}

func printUsage() {
	fmt.Println("Attendance CLI")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  attendctl login -username <name> [-password <password>]")
	fmt.Println("  attendctl logout")
	fmt.Println("  attendctl me")
	fmt.Println("  attendctl classes")
	fmt.Println("  attendctl students -class <id>")
	fmt.Println("  attendctl attendance -class <id> [-date YYYY-MM-DD]")
	fmt.Println("  attendctl mark -class <id> -students 1,2,3 [-status present] [-date YYYY-MM-DD] [-notes text]")
	fmt.Println("  attendctl probe")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  ATTENDANCE_API_ENDPOINTS  Comma-separated API base URLs, tried in order")
	fmt.Println("  ATTENDANCE_DEV            Use ATTENDANCE_DEV_URL only (default http://localhost:8787)")
	fmt.Println("  ATTENDANCE_TOKEN_FILE     Where the session token is kept")
}
