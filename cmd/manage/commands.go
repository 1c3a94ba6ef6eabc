package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aurafolio/internal/config"
	"github.com/aurafolio/internal/db"
	"github.com/aurafolio/internal/importer"
	"github.com/aurafolio/internal/maintenance"
	"github.com/aurafolio/internal/seed"
	"gorm.io/gorm"
)

const usage = `usage: manage <command> [flags]

commands:
  maintenance on|off|status   切换或查看维护模式
  seed                        生成示例数据
  import <model> <file>       从 CSV 导入数据（-update 更新已有记录）
  createuser                  创建后台账号
  check                       检查配置、数据库与迁移
`

var errUsage = errors.New("invalid arguments")

type manager struct {
	cfg    config.AppConfig
	out    io.Writer
	logger *slog.Logger
	now    func() time.Time
	openDB func() (*gorm.DB, error)
}

func (m *manager) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(m.out, usage)
		return errUsage
	}

	switch args[0] {
	case "maintenance":
		return m.maintenance(args[1:])
	case "seed":
		return m.seed(ctx, args[1:])
	case "import":
		return m.importCSV(ctx, args[1:])
	case "createuser":
		return m.createUser(args[1:])
	case "check":
		return m.check()
	case "help", "-h", "--help":
		fmt.Fprint(m.out, usage)
		return nil
	default:
		fmt.Fprint(m.out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func (m *manager) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(m.out)
	return fs
}

func (m *manager) maintenance(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: maintenance on|off|status", errUsage)
	}
	flagFile := maintenance.Flag{Path: m.cfg.MaintenanceFile}

	switch args[0] {
	case "on":
		fs := m.flagSet("maintenance on")
		message := fs.String("message", "", "维护提示信息")
		operator := fs.String("operator", os.Getenv("USER"), "操作人")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := flagFile.Enable(*message, *operator, m.now()); err != nil {
			return err
		}
		m.logger.Warn("maintenance mode enabled", "operator", *operator)
		fmt.Fprintf(m.out, "维护模式已开启：%s\n", flagFile.Path)
	case "off":
		removed, err := flagFile.Disable()
		if err != nil {
			return err
		}
		if !removed {
			fmt.Fprintln(m.out, "维护模式未开启")
			return nil
		}
		fmt.Fprintln(m.out, "维护模式已关闭")
	case "status":
		status, err := flagFile.Status()
		if err != nil {
			return err
		}
		if !status.Enabled {
			fmt.Fprintln(m.out, "maintenance: off")
			return nil
		}
		fmt.Fprintln(m.out, "maintenance: on")
		fmt.Fprintf(m.out, "  enabled at: %s\n", status.EnabledAt.Format(time.RFC3339))
		fmt.Fprintf(m.out, "  enabled by: %s\n", status.Operator)
		fmt.Fprintf(m.out, "  message:    %s\n", status.Message)
	default:
		return fmt.Errorf("%w: unknown maintenance action %q", errUsage, args[0])
	}
	return nil
}

func (m *manager) migratedDB() (*gorm.DB, error) {
	gdb, err := m.openDB()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return gdb, nil
}

func (m *manager) seed(ctx context.Context, args []string) error {
	fs := m.flagSet("seed")
	posts := fs.Int("posts", 24, "文章数量")
	systems := fs.Int("systems", 6, "项目数量")
	days := fs.Int("days", 30, "流量数据天数")
	seedValue := fs.Uint64("seed", 42, "随机种子")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gdb, err := m.migratedDB()
	if err != nil {
		return err
	}
	report, err := seed.Run(ctx, gdb, seed.Options{
		Posts:   *posts,
		Systems: *systems,
		Days:    *days,
		Seed:    *seedValue,
		Now:     m.now().UTC(),
	}, m.logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(m.out, "示例数据生成完成：文章 %d，系列 %d，项目 %d，分类 %d，技能 %d，技术 %d，教育 %d，经历 %d，关联 %d，流量 %d 天\n",
		report.Posts, report.Series, report.Systems, report.Categories, report.Skills,
		report.Technologies, report.Education, report.Experience, report.Links, report.AnalyticDays)
	return nil
}

func (m *manager) importCSV(ctx context.Context, args []string) error {
	fs := m.flagSet("import")
	update := fs.Bool("update", false, "更新已存在的记录")
	if err := fs.Parse(hoistFlags(args)); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: import [-update] <model> <file>", errUsage)
	}
	model, path := fs.Arg(0), fs.Arg(1)

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	gdb, err := m.migratedDB()
	if err != nil {
		return err
	}
	imp := importer.New(gdb, nil, m.logger)
	result, err := imp.Run(ctx, model, file, importer.Options{UpdateExisting: *update})
	if err != nil {
		if errors.Is(err, importer.ErrUnknownModel) {
			return fmt.Errorf("%w (可选: %s)", err, strings.Join(imp.Models(), ", "))
		}
		return err
	}

	fmt.Fprintln(m.out, result.Summary())
	for _, rowErr := range result.Errors {
		fmt.Fprintf(m.out, "  第 %d 行: %s\n", rowErr.Line, rowErr.Message)
	}
	return nil
}

// hoistFlags 把位置参数之后的 flag 移到前面，flag 包遇到第一个位置参数就会停止解析。
func hoistFlags(args []string) []string {
	flags := make([]string, 0, len(args))
	positional := make([]string, 0, len(args))
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			continue
		}
		positional = append(positional, arg)
	}
	return append(flags, positional...)
}

func (m *manager) createUser(args []string) error {
	fs := m.flagSet("createuser")
	username := fs.String("username", "", "用户名")
	password := fs.String("password", "", "密码")
	displayName := fs.String("display-name", "", "显示名称")
	if err := fs.Parse(args); err != nil {
		return err
	}
	name := strings.TrimSpace(*username)
	if name == "" || strings.TrimSpace(*password) == "" {
		return fmt.Errorf("%w: createuser -username <name> -password <password>", errUsage)
	}
	if len(*password) < 8 {
		return errors.New("密码至少需要 8 位")
	}

	gdb, err := m.migratedDB()
	if err != nil {
		return err
	}
	hashed, err := db.HashPassword(*password)
	if err != nil {
		return err
	}
	user := db.User{Username: name, Password: hashed, DisplayName: strings.TrimSpace(*displayName), IsStaff: true}
	if err := gdb.Create(&user).Error; err != nil {
		if db.IsDuplicate(err) {
			return fmt.Errorf("用户 %s 已存在", name)
		}
		return err
	}
	fmt.Fprintf(m.out, "用户 %s 已创建\n", name)
	return nil
}

// check 逐项检查部署环境，任一步失败时返回 error。
func (m *manager) check() error {
	failed := 0
	report := func(name string, err error) {
		if err != nil {
			failed++
			fmt.Fprintf(m.out, "[FAIL] %s: %v\n", name, err)
			return
		}
		fmt.Fprintf(m.out, "[PASS] %s\n", name)
	}

	var secretErr error
	if len(m.cfg.SessionSecret) < 16 {
		secretErr = errors.New("SESSION_SECRET 至少需要 16 个字符")
	}
	report("session secret", secretErr)

	gdb, err := m.openDB()
	report("database connection", err)
	if err != nil {
		return fmt.Errorf("%d check(s) failed", failed)
	}

	sqlDB, err := gdb.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	report("database ping", err)
	report("migrations", db.Migrate(gdb))

	var users int64
	err = gdb.Model(&db.User{}).Where("is_staff = ?", true).Count(&users).Error
	if err == nil && users == 0 {
		err = errors.New("没有可登录后台的账号，运行 manage createuser")
	}
	report("admin account", err)

	var uploadErr error
	if m.cfg.UploadDir != "" {
		uploadErr = os.MkdirAll(m.cfg.UploadDir, 0o755)
	}
	report("upload directory", uploadErr)

	if (maintenance.Flag{Path: m.cfg.MaintenanceFile}).Enabled() {
		fmt.Fprintln(m.out, "[INFO] maintenance mode is on")
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}
