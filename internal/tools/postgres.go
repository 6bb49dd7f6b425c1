package tools

import (
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/heroku/heroku-mcp-server/internal/cli"
)

// PsqlInput runs SQL against a database.
type PsqlInput struct {
	App        string `json:"app" jsonschema:"app to run command against"`
	Command    string `json:"command,omitempty" jsonschema:"SQL command to run; file is ignored if provided; must be single line; must supply either command or file"`
	File       string `json:"file,omitempty" jsonschema:"SQL file to run; command is ignored if provided; must be an absolute path; must supply either command or file"`
	Credential string `json:"credential,omitempty" jsonschema:"credential to use"`
	Database   string `json:"database,omitempty" jsonschema:"Config var containing the connection string, unique name, ID, or alias of the database. If omitted, DATABASE_URL is used."`
}

// DatabaseInput targets one of an app's databases.
type DatabaseInput struct {
	App      string `json:"app" jsonschema:"The name of the Heroku app whose database to inspect"`
	Database string `json:"database,omitempty" jsonschema:"Config var containing the connection string, unique name, ID, or alias of the database. If omitted, DATABASE_URL is used."`
}

// PgPsInput lists running queries.
type PgPsInput struct {
	App      string `json:"app" jsonschema:"The name of the Heroku app whose database processes to view"`
	Verbose  bool   `json:"verbose,omitempty" jsonschema:"Show query plan and memory usage"`
	Database string `json:"database,omitempty" jsonschema:"Config var, name, ID, or alias of the database. If omitted, DATABASE_URL is used."`
}

// PgLocksInput lists locks.
type PgLocksInput struct {
	App      string `json:"app" jsonschema:"The name of the Heroku app whose database locks to view"`
	Truncate bool   `json:"truncate,omitempty" jsonschema:"Truncate queries to 40 characters"`
	Database string `json:"database,omitempty" jsonschema:"Config var, name, ID, or alias of the database. If omitted, DATABASE_URL is used."`
}

// PgOutliersInput reports expensive queries.
type PgOutliersInput struct {
	App      string `json:"app" jsonschema:"The name of the Heroku app whose query statistics to analyze"`
	Num      int    `json:"num,omitempty" jsonschema:"The number of queries to display. Defaults to 10."`
	Reset    bool   `json:"reset,omitempty" jsonschema:"Reset statistics gathered by pg_stat_statements"`
	Truncate bool   `json:"truncate,omitempty" jsonschema:"Truncate queries to 40 characters"`
	Database string `json:"database,omitempty" jsonschema:"Config var, name, ID, or alias of the database. If omitted, DATABASE_URL is used."`
}

// PgKillInput terminates a backend.
type PgKillInput struct {
	App      string `json:"app" jsonschema:"The name of the Heroku app whose database process to terminate"`
	PID      int    `json:"pid" jsonschema:"The process ID to terminate, as shown by pg_ps"`
	Force    bool   `json:"force,omitempty" jsonschema:"Terminate immediately instead of cancelling the query"`
	Database string `json:"database,omitempty" jsonschema:"Config var, name, ID, or alias of the database. If omitted, DATABASE_URL is used."`
}

// PgBackupsInput names the app whose backups are listed.
type PgBackupsInput struct {
	App string `json:"app" jsonschema:"The name of the Heroku app whose backups to manage"`
}

// PgUpgradeInput upgrades a database's major version.
type PgUpgradeInput struct {
	App      string `json:"app" jsonschema:"The name of the Heroku app whose database to upgrade"`
	Version  string `json:"version,omitempty" jsonschema:"PostgreSQL version to upgrade to"`
	Confirm  string `json:"confirm,omitempty" jsonschema:"Confirmation string required for this potentially destructive operation"`
	Database string `json:"database,omitempty" jsonschema:"Config var, name, ID, or alias of the database. If omitted, DATABASE_URL is used."`
}

func registerPostgres(server *mcp.Server, r *registry) {
	addCommandTool(server, r, &mcp.Tool{
		Name: "pg_psql",
		Description: "[DESC] Execute SQL queries against Heroku PostgreSQL database\n" +
			"[PARAM] app: <string> Target application name\n" +
			"[OPT] command: SQL to execute - single line only; file: SQL file path; credential: alternate auth; database: specific DB\n" +
			"[USAGE] Query analysis, locks investigation, schema updates\n" +
			"[RELATED] pg:ps (verify execution), pg:locks (check blocking), pg:credentials (auth)",
	}, func(in PsqlInput) string {
		return cli.NewBuilder(cmdPgPsql).
			Flag("app", in.App).
			QuotedFlag("command", in.Command).
			Flag("file", in.File).
			Flag("credential", in.Credential).
			Positional(in.Database).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name: "pg_info",
		Description: "[DESC] Display detailed information about a Heroku PostgreSQL database\n" +
			"[PARAM] app: <string> Target application name\n" +
			"[OPT] database: specific DB to inspect\n" +
			"[USAGE] Performance investigation, connection monitoring\n" +
			"[RELATED] pg:ps (active queries), pg:backups (database health)",
		Annotations: readOnly(),
	}, func(in DatabaseInput) string {
		return cli.NewBuilder(cmdPgInfo).Flag("app", in.App).Positional(in.Database).Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name: "pg_ps",
		Description: "[DESC] View active queries and their execution details\n" +
			"[PARAM] app: <string> Target application name\n" +
			"[OPT] verbose: detailed output; database: specific DB\n" +
			"[USAGE] Identify running queries, monitor progress, verify blocking locks\n" +
			"[RELATED] pg:locks (check blocking), pg:outliers (analyze performance)",
		Annotations: readOnly(),
	}, func(in PgPsInput) string {
		return cli.NewBuilder(cmdPgPs).
			Flag("app", in.App).
			BoolFlag("verbose", in.Verbose).
			Positional(in.Database).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name: "pg_locks",
		Description: "[DESC] View database locks and identify blocking transactions\n" +
			"[PARAM] app: <string> Target application name\n" +
			"[OPT] truncate: shorten output; database: specific DB\n" +
			"[USAGE] Deadlock investigation, lock chain analysis\n" +
			"[RELATED] pg:ps (blocking queries), pg:psql (detailed investigation)",
		Annotations: readOnly(),
	}, func(in PgLocksInput) string {
		return cli.NewBuilder(cmdPgLocks).
			Flag("app", in.App).
			BoolFlag("truncate", in.Truncate).
			Positional(in.Database).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name: "pg_outliers",
		Description: "[DESC] Identify resource-intensive and long-running queries\n" +
			"[PARAM] app: <string> Target application name\n" +
			"[OPT] num: result limit; reset: clear stats; truncate: shorten display; database: specific DB\n" +
			"[USAGE] Performance analysis, query optimization\n" +
			"[TIPS] Reset periodically; Follow up with pg:psql",
	}, func(in PgOutliersInput) string {
		b := cli.NewBuilder(cmdPgOutliers).Flag("app", in.App)

		if in.Num > 0 {
			b.Flag("num", strconv.Itoa(in.Num))
		}

		return b.BoolFlag("reset", in.Reset).
			BoolFlag("truncate", in.Truncate).
			Positional(in.Database).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name: "pg_credentials",
		Description: "[DESC] Manage database connection credentials and access\n" +
			"[PARAM] app: <string> Target application name\n" +
			"[OPT] database: specific DB to manage\n" +
			"[USAGE] Setup monitoring, configure access, rotate credentials",
		Annotations: readOnly(),
	}, func(in DatabaseInput) string {
		return cli.NewBuilder(cmdPgCredentials).Flag("app", in.App).Positional(in.Database).Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name: "pg_kill",
		Description: "[DESC] Terminate specific database processes\n" +
			"[PARAM] app: <string> Target application name; pid: <number> Process ID to terminate\n" +
			"[OPT] force: immediate termination; database: specific DB\n" +
			"[SAFETY] Non-destructive to data; Use force cautiously; Verify PID with pg:ps\n" +
			"[USAGE] Stop long queries, clear stuck processes",
		Annotations: destructive(),
	}, func(in PgKillInput) string {
		return cli.NewBuilder(cmdPgKill).
			Flag("app", in.App).
			BoolFlag("force", in.Force).
			Positional(strconv.Itoa(in.PID), in.Database).
			Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name: "pg_maintenance",
		Description: "[DESC] Show current maintenance information\n" +
			"[PARAM] app: <string> Target application name\n" +
			"[RELATED] pg_info (health), pg_backups (safety)",
		Annotations: readOnly(),
	}, func(in DatabaseInput) string {
		return cli.NewBuilder(cmdPgMaintenance).Flag("app", in.App).Positional(in.Database).Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name: "pg_backups",
		Description: "[DESC] Manage database backups and schedules\n" +
			"[PARAM] app: <string> Target application name\n" +
			"[USAGE] List database backups for the app.",
		Annotations: readOnly(),
	}, func(in PgBackupsInput) string {
		return cli.NewBuilder(cmdPgBackups).Flag("app", in.App).Build()
	})

	addCommandTool(server, r, &mcp.Tool{
		Name: "pg_upgrade",
		Description: "[DESC] Upgrade a Heroku PostgreSQL database to a newer version\n" +
			"[PARAM] app: <string> Target application name\n" +
			"[OPT] version: new version; confirm: confirmation string; database: specific DB\n" +
			"[USAGE] Critical operations workflow: 1) Check current version with pg:info",
		Annotations: destructive(),
	}, func(in PgUpgradeInput) string {
		return cli.NewBuilder(cmdPgUpgrade).
			Flag("app", in.App).
			Flag("version", in.Version).
			Flag("confirm", in.Confirm).
			Positional(in.Database).
			Build()
	})
}
