package inbound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shandysiswandi/credvault/internal/credential/entity"
	"github.com/shandysiswandi/credvault/internal/credential/usecase"
	"github.com/shandysiswandi/credvault/internal/pkg/console"
	"github.com/shandysiswandi/credvault/internal/pkg/instrument"
	"github.com/shandysiswandi/credvault/internal/pkg/uid"
)

type uc interface {
	UserCreate(ctx context.Context, in usecase.UserCreateInput) (*entity.Credential, error)
	Authenticate(ctx context.Context, in usecase.LoginInput) (bool, error)
	UserDelete(ctx context.Context, in usecase.UserDeleteInput) (entity.DeleteOutcome, error)
	UserProvision(ctx context.Context, in usecase.UserProvisionInput) ([]entity.ProvisionedCredential, error)
	UserList(ctx context.Context) ([]string, error)

	StoreBackup(ctx context.Context) (*usecase.BackupOutput, error)
	StoreBackupList(ctx context.Context) ([]usecase.BackupInfo, error)
	StoreRestore(ctx context.Context, in usecase.StoreRestoreInput) (*usecase.StoreRestoreOutput, error)
}

// State is a screen of the console.
type State int

const (
	StateMainMenu State = iota
	StateCreateUser
	StateLogin
	StateDeleteUser
	StateBulkProvision
	StateListUsers
	StateBackup
	StateRestore
	StateExit
)

func (s State) String() string {
	switch s {
	case StateMainMenu:
		return "MainMenu"
	case StateCreateUser:
		return "CreateUser"
	case StateLogin:
		return "Login"
	case StateDeleteUser:
		return "DeleteUser"
	case StateBulkProvision:
		return "BulkProvision"
	case StateListUsers:
		return "ListUsers"
	case StateBackup:
		return "Backup"
	case StateRestore:
		return "Restore"
	case StateExit:
		return "Exit"
	default:
		return "Unknown"
	}
}

// menu maps a main menu choice to its state, in display order.
var menu = []struct {
	key   string
	label string
	state State
}{
	{"1", "Create user", StateCreateUser},
	{"2", "Login", StateLogin},
	{"3", "Delete user", StateDeleteUser},
	{"4", "Bulk provision test users", StateBulkProvision},
	{"5", "List users", StateListUsers},
	{"6", "Backup store", StateBackup},
	{"7", "Restore store", StateRestore},
	{"0", "Exit", StateExit},
}

// Console is the interactive front end. It only talks to the use cases and
// to a Prompter, never to the store.
type Console struct {
	uc     uc
	prompt console.Prompter
	out    io.Writer
	uuid   uid.StringID
}

func NewConsole(uc uc, prompt console.Prompter, out io.Writer, uuid uid.StringID) *Console {
	return &Console{uc: uc, prompt: prompt, out: out, uuid: uuid}
}

// Run drives the state machine from the main menu until Exit, closed input
// or ctx cancellation. Closed input is a normal exit.
func (c *Console) Run(ctx context.Context) error {
	state := StateMainMenu
	for state != StateExit {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, err := c.Step(ctx, state)
		if errors.Is(err, io.EOF) {
			c.println()
			return nil
		}
		if err != nil {
			return err
		}
		state = next
	}

	c.println("Bye.")
	return nil
}

// Step runs one screen and returns the state to go to. Only prompt
// failures are returned as errors; use case failures are printed.
func (c *Console) Step(ctx context.Context, state State) (State, error) {
	ctx = instrument.SetCorrelationID(ctx, c.uuid.Generate())
	slog.DebugContext(ctx, "console state", "state", state.String())

	switch state {
	case StateMainMenu:
		return c.mainMenu()
	case StateCreateUser:
		return c.createUser(ctx)
	case StateLogin:
		return c.login(ctx)
	case StateDeleteUser:
		return c.deleteUser(ctx)
	case StateBulkProvision:
		return c.bulkProvision(ctx)
	case StateListUsers:
		return c.listUsers(ctx)
	case StateBackup:
		return c.backup(ctx)
	case StateRestore:
		return c.restore(ctx)
	default:
		return StateExit, nil
	}
}

func (c *Console) mainMenu() (State, error) {
	c.println()
	c.println("=== credvault ===")
	for _, item := range menu {
		c.printf("%s) %s\n", item.key, item.label)
	}

	choice, err := c.prompt.ReadLine("Choose an option: ")
	if err != nil {
		return StateExit, err
	}

	for _, item := range menu {
		if item.key == trim(choice) {
			return item.state, nil
		}
	}

	c.println("Invalid choice, try again.")
	return StateMainMenu, nil
}

func (c *Console) println(a ...any) {
	_, _ = fmt.Fprintln(c.out, a...)
}

func (c *Console) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(c.out, format, a...)
}
