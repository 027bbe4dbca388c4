// Package cli implements the interactive gradebook menu.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/mmynk/gradebook/internal/models"
	"github.com/mmynk/gradebook/internal/registry"
	"github.com/mmynk/gradebook/internal/service"
)

const ruleWidth = 60

// CLI reads menu choices from in and writes results to out.
type CLI struct {
	svc       *service.GradebookService
	in        *bufio.Scanner
	out       io.Writer
	colors    palette
	topN      int
	exportDir string

	lines   chan string
	done    <-chan struct{}
	readErr error // set before lines is closed
}

// palette colors result lines. Every color is disabled when out is not a terminal.
type palette struct {
	title *color.Color
	ok    *color.Color
	warn  *color.Color
	fail  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		title: color.New(color.FgCyan, color.Bold),
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		fail:  color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.title, p.ok, p.warn, p.fail} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// New creates a menu over svc.
func New(svc *service.GradebookService, in io.Reader, out io.Writer, topN int, exportDir string) *CLI {
	if topN <= 0 {
		topN = 3
	}
	return &CLI{
		svc:       svc,
		in:        bufio.NewScanner(in),
		out:       out,
		colors:    newPalette(isTerminal(out)),
		topN:      topN,
		exportDir: exportDir,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run shows the menu until the operator picks 0, input ends or ctx is done.
// A failure to read input is returned as an error.
//
// Input is read on a separate goroutine. When Run returns before input ends,
// that goroutine stays blocked in Read until the caller closes in.
func (c *CLI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.done = ctx.Done()
	c.lines = make(chan string)
	go c.readLines()

	for {
		c.printMenu()

		choice, ok := c.prompt("\nChoose menu (0-12): ")
		if !ok {
			if ctx.Err() != nil {
				return nil
			}
			if c.readErr != nil {
				return fmt.Errorf("failed to read input: %w", c.readErr)
			}
			return nil
		}

		switch choice {
		case "1":
			c.addStudent(ctx)
		case "2":
			c.listStudents()
		case "3":
			c.searchStudents()
		case "4":
			c.updateStudent(ctx)
		case "5":
			c.deleteStudent(ctx)
		case "6":
			c.addGrade(ctx)
		case "7":
			c.topStudents()
		case "8":
			c.classStatistics()
		case "9":
			c.schoolStatistics()
		case "10":
			c.manageClasses(ctx)
		case "11":
			c.manageSubjects(ctx)
		case "12":
			c.export(ctx)
		case "0":
			c.println("\nGoodbye!")
			return nil
		default:
			c.failf("\n✗ Invalid choice! Please pick 0-12.\n")
		}
	}
}

// readLines feeds c.lines until input ends or the menu stops.
func (c *CLI) readLines() {
	defer close(c.lines)
	for c.in.Scan() {
		select {
		case c.lines <- c.in.Text():
		case <-c.done:
			return
		}
	}
	c.readErr = c.in.Err()
}

func (c *CLI) printMenu() {
	c.header("STUDENT GRADEBOOK")
	c.println(`  1. Add student
  2. List all students
  3. Search student
  4. Update student
  5. Delete student
  6. Add grade
  7. Top students
  8. Class statistics
  9. School statistics
 10. Manage classes
 11. Manage subjects
 12. Export report (XLSX)
  0. Exit`)
}

func (c *CLI) header(title string) {
	rule := strings.Repeat("━", ruleWidth)
	pad := (ruleWidth - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	c.colors.title.Fprintf(c.out, "\n%s\n%s%s\n%s\n", rule, strings.Repeat(" ", pad), title, rule)
}

// prompt prints label and reads one trimmed line. ok is false at end of
// input or once the context is done.
func (c *CLI) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	select {
	case line, ok := <-c.lines:
		if !ok {
			c.println("")
			return "", false
		}
		return strings.TrimSpace(line), true
	case <-c.done:
		c.println("")
		return "", false
	}
}

func (c *CLI) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *CLI) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *CLI) okf(format string, args ...any) {
	c.colors.ok.Fprintf(c.out, format, args...)
}

func (c *CLI) warnf(format string, args ...any) {
	c.colors.warn.Fprintf(c.out, format, args...)
}

func (c *CLI) failf(format string, args ...any) {
	c.colors.fail.Fprintf(c.out, format, args...)
}

// status renders a status in green or red.
func (c *CLI) status(st models.Status) string {
	if st == models.StatusPassed {
		return c.colors.ok.Sprint(string(st))
	}
	return c.colors.fail.Sprint(string(st))
}

func (c *CLI) printError(err error) {
	var me *models.Error
	if errors.As(err, &me) {
		c.failf("\n✗ %s\n", me.Message)
		return
	}
	c.failf("\n✗ %v\n", err)
}

// --- Students ---

func (c *CLI) addStudent(ctx context.Context) {
	c.header("ADD STUDENT")

	suggested := c.svc.NextID()
	var id string
	for {
		input, ok := c.prompt(fmt.Sprintf("Student ID (format S001, Enter for %s): ", suggested))
		if !ok {
			return
		}
		if input == "" {
			input = suggested
		}
		if !models.IsValidStudentID(input) {
			c.failf("✗ Invalid ID format! Use S followed by 3 digits (e.g. S001, S012).\n")
			continue
		}
		if c.svc.FindByID(input) != nil {
			c.failf("✗ ID %s is already in use! Please pick another.\n", input)
			continue
		}
		id = input
		break
	}

	name, ok := c.prompt("Student name: ")
	if !ok {
		return
	}
	if !models.IsValidName(name) {
		c.failf("✗ Name cannot be empty!\n")
		return
	}
	className, ok := c.prompt("Class: ")
	if !ok {
		return
	}

	s, err := c.svc.AddStudent(ctx, id, name, className)
	if err != nil {
		c.printError(err)
		return
	}
	c.okf("\n✓ Student %s (%s) added!\n", s.Name(), s.ID())
}

func (c *CLI) listStudents() {
	c.header("ALL STUDENTS")
	students := c.svc.ListStudents()
	if len(students) == 0 {
		c.warnf("\n⚠ No students yet.\n")
		return
	}
	c.printTable(students)
	c.printf("\nTotal: %d students\n", len(students))
}

func (c *CLI) searchStudents() {
	c.header("SEARCH STUDENT")
	query, ok := c.prompt("ID or name: ")
	if !ok {
		return
	}
	matches := c.svc.Search(query)
	if len(matches) == 0 {
		c.failf("\n✗ No student matches %q.\n", query)
		return
	}
	c.printf("\nFound %d student(s):\n", len(matches))
	c.printTable(matches)
}

func (c *CLI) updateStudent(ctx context.Context) {
	c.header("UPDATE STUDENT")
	id, ok := c.prompt("Student ID: ")
	if !ok {
		return
	}
	s := c.svc.FindByID(id)
	if s == nil {
		c.failf("\n✗ Student with ID %s not found!\n", id)
		return
	}
	c.println("\nCurrent data:")
	c.printDetail(s)

	c.println("\n  Leave blank to keep the current value")
	name, ok := c.prompt("New name: ")
	if !ok {
		return
	}
	className, ok := c.prompt("New class: ")
	if !ok {
		return
	}

	var u registry.StudentUpdate
	if name != "" {
		u.Name = &name
	}
	if className != "" {
		u.Class = &className
	}
	if u.Name == nil && u.Class == nil {
		c.warnf("\n⚠ Nothing changed.\n")
		return
	}

	updated, err := c.svc.UpdateStudent(ctx, id, u)
	if err != nil {
		c.printError(err)
		return
	}
	c.okf("\n✓ Student updated!\n")
	c.printDetail(updated)
}

func (c *CLI) deleteStudent(ctx context.Context) {
	c.header("DELETE STUDENT")
	id, ok := c.prompt("Student ID: ")
	if !ok {
		return
	}
	s := c.svc.FindByID(id)
	if s == nil {
		c.failf("\n✗ Student with ID %s not found!\n", id)
		return
	}
	c.println("\nStudent to delete:")
	c.printDetail(s)

	answer, ok := c.prompt("\n⚠ Are you sure you want to delete this student? (Y/N): ")
	if !ok {
		return
	}
	if !strings.EqualFold(answer, "y") {
		c.warnf("\n⚠ Deletion cancelled.\n")
		return
	}
	if err := c.svc.RemoveStudent(ctx, id); err != nil {
		c.printError(err)
		return
	}
	c.okf("\n✓ Student %s (%s) deleted!\n", s.Name(), s.ID())
}

func (c *CLI) addGrade(ctx context.Context) {
	c.header("ADD GRADE")
	id, ok := c.prompt("Student ID: ")
	if !ok {
		return
	}
	s := c.svc.FindByID(id)
	if s == nil {
		c.failf("\n✗ Student with ID %s not found!\n", id)
		return
	}
	c.printf("\n  Name: %s\n  Class: %s\n", s.Name(), s.Class())
	if subjects := c.svc.SubjectNames(); len(subjects) > 0 {
		c.printf("  Subjects: %s\n", strings.Join(subjects, ", "))
	}

	subject, ok := c.prompt("\nSubject: ")
	if !ok {
		return
	}
	if !models.IsValidName(subject) {
		c.failf("✗ Subject cannot be empty!\n")
		return
	}

	var score float64
	for {
		input, ok := c.prompt("Score (0-100): ")
		if !ok {
			return
		}
		v, err := strconv.ParseFloat(input, 64)
		if err != nil || !models.IsValidGrade(v) {
			c.failf("✗ Invalid score! Enter a number between 0 and 100.\n")
			continue
		}
		score = v
		break
	}

	graded, err := c.svc.AddGrade(ctx, id, subject, score)
	if err != nil {
		c.printError(err)
		return
	}
	c.okf("\n✓ Grade %s (%s) recorded for %s!\n", subject, formatScore(score), graded.Name())
	c.printf("  Average: %.2f\n  Status: %s\n", graded.Average(), c.status(graded.Status(c.svc.Thresholds())))
}

// --- Rankings and statistics ---

func (c *CLI) topStudents() {
	c.header(fmt.Sprintf("TOP %d STUDENTS", c.topN))
	top := c.svc.TopStudents(c.topN)
	if len(top) == 0 {
		c.warnf("\n⚠ No passing students yet.\n")
		return
	}
	for i, s := range top {
		c.printf("\n#%d %s (%s) - %s\n    Average: %.2f\n", i+1, s.Name(), s.ID(), s.Class(), s.Average())
	}
}

func (c *CLI) classStatistics() {
	c.header("CLASS STATISTICS")
	className, ok := c.prompt("Class name: ")
	if !ok {
		return
	}
	stats, found := c.svc.ClassStatistics(className)
	if !found {
		c.failf("\n✗ No students in class %s.\n", className)
		return
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\n  Class\t: %s\n", stats.ClassName)
	fmt.Fprintf(tw, "  Total students\t: %d\n", stats.TotalStudents)
	fmt.Fprintf(tw, "  Class average\t: %.2f\n", stats.ClassAverage)
	fmt.Fprintf(tw, "  Passed\t: %d\n", stats.PassedStudents)
	fmt.Fprintf(tw, "  Failed\t: %d\n", stats.FailedStudents)
	fmt.Fprintf(tw, "  Pass rate\t: %.2f%%\n", stats.PassRate)
	fmt.Fprintf(tw, "  Highest average\t: %.2f\n", stats.HighestAverage)
	fmt.Fprintf(tw, "  Lowest average\t: %.2f\n", stats.LowestAverage)
	tw.Flush()

	c.printf("\nStudents in %s:\n", stats.ClassName)
	th := c.svc.Thresholds()
	for i, s := range stats.Students {
		c.printf("  %d. %-20s (%s) - Average: %.2f %s\n", i+1, s.Name(), s.ID(), s.Average(), c.status(s.Status(th)))
	}
}

func (c *CLI) schoolStatistics() {
	c.header("SCHOOL STATISTICS")
	stats := c.svc.SchoolStatistics()

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\n  Total students\t: %d\n", stats.TotalStudents)
	fmt.Fprintf(tw, "  Total classes\t: %d\n", stats.TotalClasses)
	fmt.Fprintf(tw, "  School average\t: %.2f\n", stats.SchoolAverage)
	fmt.Fprintf(tw, "  Passed\t: %d\n", stats.PassedStudents)
	fmt.Fprintf(tw, "  Failed\t: %d\n", stats.FailedStudents)
	fmt.Fprintf(tw, "  Pass rate\t: %.2f%%\n", stats.PassRate)
	tw.Flush()
}

// --- Classes and subjects ---

func (c *CLI) manageClasses(ctx context.Context) {
	c.header("MANAGE CLASSES")
	c.printNames("Classes", c.svc.ClassNames())

	action, ok := c.prompt("\n1. Add class  2. Rename class  0. Back: ")
	if !ok {
		return
	}
	switch action {
	case "1":
		name, ok := c.prompt("New class name: ")
		if !ok {
			return
		}
		added, err := c.svc.AddClassName(ctx, name)
		if err != nil {
			c.printError(err)
			return
		}
		if !added {
			c.warnf("\n⚠ Class %q already exists or is empty.\n", name)
			return
		}
		c.okf("\n✓ Class %s added!\n", name)
	case "2":
		oldName, ok := c.prompt("Current class name: ")
		if !ok {
			return
		}
		newName, ok := c.prompt("New class name: ")
		if !ok {
			return
		}
		n, err := c.svc.RenameClassName(ctx, oldName, newName)
		if err != nil {
			c.printError(err)
			return
		}
		c.okf("\n✓ Class renamed to %s (%d students moved).\n", newName, n)
	}
}

func (c *CLI) manageSubjects(ctx context.Context) {
	c.header("MANAGE SUBJECTS")
	c.printNames("Subjects", c.svc.SubjectNames())

	action, ok := c.prompt("\n1. Add subject  2. Rename subject  0. Back: ")
	if !ok {
		return
	}
	switch action {
	case "1":
		name, ok := c.prompt("New subject name: ")
		if !ok {
			return
		}
		added, err := c.svc.AddSubjectName(ctx, name)
		if err != nil {
			c.printError(err)
			return
		}
		if !added {
			c.warnf("\n⚠ Subject %q already exists or is empty.\n", name)
			return
		}
		c.okf("\n✓ Subject %s added!\n", name)
	case "2":
		oldName, ok := c.prompt("Current subject name: ")
		if !ok {
			return
		}
		newName, ok := c.prompt("New subject name: ")
		if !ok {
			return
		}
		n, err := c.svc.RenameSubjectName(ctx, oldName, newName)
		if err != nil {
			c.printError(err)
			return
		}
		c.okf("\n✓ Subject renamed to %s (%d grades migrated).\n", newName, n)
	}
}

func (c *CLI) export(ctx context.Context) {
	c.header("EXPORT REPORT")
	path, err := c.svc.Export(ctx, c.exportDir)
	if err != nil {
		c.printError(err)
		return
	}
	c.okf("\n✓ Report written to %s\n", path)
}

// --- Rendering ---

func (c *CLI) printNames(title string, names []string) {
	if len(names) == 0 {
		c.printf("\n%s: (none)\n", title)
		return
	}
	c.printf("\n%s:\n", title)
	for i, name := range names {
		c.printf("  %d. %s\n", i+1, name)
	}
}

func (c *CLI) printTable(students []*models.Student) {
	subjects := c.svc.SubjectNames()
	th := c.svc.Thresholds()

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	cols := append([]string{"ID", "Name", "Class"}, subjects...)
	cols = append(cols, "Average", "Status")
	fmt.Fprintln(tw, strings.Join(cols, "\t"))

	for _, s := range students {
		row := []string{s.ID(), s.Name(), s.Class()}
		for _, subject := range subjects {
			if score, ok := s.Grade(subject); ok {
				row = append(row, formatScore(score))
			} else {
				row = append(row, "-")
			}
		}
		row = append(row, fmt.Sprintf("%.2f", s.Average()), c.status(s.Status(th)))
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func (c *CLI) printDetail(s *models.Student) {
	c.printf("  ID: %s\n  Name: %s\n  Class: %s\n", s.ID(), s.Name(), s.Class())
	for _, subject := range c.svc.SubjectNames() {
		if score, ok := s.Grade(subject); ok {
			c.printf("  %s: %s\n", subject, formatScore(score))
		}
	}
	c.printf("  Average: %.2f\n  Status: %s\n", s.Average(), c.status(s.Status(c.svc.Thresholds())))
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
