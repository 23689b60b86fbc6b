// CrewPlan 排班命令行工具
// 离线生成排班、展开排班周期、查看版本信息

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/crewplan/crewplan/internal/config"
	"github.com/crewplan/crewplan/pkg/logger"
	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/rotation"
	"github.com/crewplan/crewplan/pkg/scheduler/planner"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "planctl",
	Short: "CrewPlan 船员排班命令行工具",
	Long:  "planctl 在命令行离线运行排班引擎：读取请求文件生成排班、展开排班周期、生成值班班次模板。",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载 .env（不存在时忽略错误）
		godotenv.Load()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		logger.Init(logger.Config{
			Level:  cfg.App.LogLevel,
			Format: "console",
		})
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// ========================================
// plan 子命令
// ========================================

var (
	planEngine  string
	planOutput  string
	planTimeout int
)

var planCmd = &cobra.Command{
	Use:   "plan <请求文件>",
	Short: "读取请求文件并生成排班",
	Long:  "读取 JSON 或 YAML 排班请求文件（与 POST /api/v1/plan/generate 请求体同构），运行排班引擎并输出结果。",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planEngine, "engine", "e", "", "排班引擎 (greedy/constraint)，覆盖文件中的 engine 字段")
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "", "结果输出文件，缺省输出到标准输出")
	planCmd.Flags().IntVar(&planTimeout, "timeout", 30, "排班超时时间（秒）")
	rootCmd.AddCommand(planCmd)
}

// planDocument 排班请求文件内容
// 字段布局与 /api/v1/plan/generate 请求体一致
type planDocument struct {
	FleetID        string                              `json:"fleet_id"`
	Engine         string                              `json:"engine"`
	Days           []string                            `json:"days"`
	StartDate      string                              `json:"start_date"`
	EndDate        string                              `json:"end_date"`
	Shifts         []*model.ShiftTemplate              `json:"shifts"`
	Crew           []*model.CrewMember                 `json:"crew"`
	Leaves         []model.LeaveRecord                 `json:"leaves"`
	PortCalls      []model.PortCallWindow              `json:"port_calls"`
	Drydocks       []model.DrydockWindow               `json:"drydocks"`
	Certifications map[uuid.UUID][]model.Certification `json:"certifications"`
	Preferences    *model.SchedulingPreferences        `json:"preferences"`
}

// planOutcome plan 子命令的输出结构
type planOutcome struct {
	Engine    string                `json:"engine"`
	Days      []string              `json:"days"`
	Scheduled []*model.Assignment   `json:"scheduled"`
	Unfilled  []model.UnfilledShift `json:"unfilled"`
	Duration  string                `json:"duration"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	var doc planDocument
	if err := decodeRequestFile(args[0], &doc); err != nil {
		return err
	}

	// 命令行引擎参数优先于文件字段
	engine := doc.Engine
	if planEngine != "" {
		engine = planEngine
	}
	if engine == "" {
		engine = "greedy"
	}

	// 排班日期：显式列表优先，否则按日期范围展开
	days := doc.Days
	if len(days) == 0 {
		if doc.StartDate == "" || doc.EndDate == "" {
			return fmt.Errorf("请求文件需给出 days 或 start_date/end_date")
		}
		expanded, err := rotation.DateRangeDays(doc.StartDate, doc.EndDate)
		if err != nil {
			return fmt.Errorf("展开日期范围失败: %w", err)
		}
		days = expanded
	}

	var fleetID uuid.UUID
	if doc.FleetID != "" {
		parsed, err := uuid.Parse(doc.FleetID)
		if err != nil {
			return fmt.Errorf("船队标识无效: %w", err)
		}
		fleetID = parsed
	}

	req := &planner.Request{
		FleetID:        fleetID,
		Days:           days,
		Shifts:         doc.Shifts,
		Crew:           doc.Crew,
		Leaves:         doc.Leaves,
		PortCalls:      doc.PortCalls,
		Drydocks:       doc.Drydocks,
		Certifications: doc.Certifications,
		Preferences:    doc.Preferences,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(planTimeout)*time.Second)
	defer cancel()

	start := time.Now()
	result, err := planner.NewSelector().Plan(ctx, engine, req)
	if err != nil {
		return fmt.Errorf("排班失败: %w", err)
	}
	duration := time.Since(start)

	fmt.Printf("排班完成: 引擎=%s 天数=%d 分配=%d 缺员=%d 耗时=%s\n",
		engine, len(days), len(result.Scheduled), len(result.Unfilled), duration.Round(time.Millisecond))
	for _, u := range result.Unfilled {
		fmt.Printf("  缺员 %s 班次=%s 缺%d人: %s\n", u.Day, u.ShiftID, u.Need, u.Reason)
	}

	outcome := planOutcome{
		Engine:    engine,
		Days:      days,
		Scheduled: result.Scheduled,
		Unfilled:  result.Unfilled,
		Duration:  duration.Round(time.Millisecond).String(),
	}

	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化结果失败: %w", err)
	}

	if planOutput != "" {
		if err := os.WriteFile(planOutput, data, 0644); err != nil {
			return fmt.Errorf("写入结果文件失败: %w", err)
		}
		fmt.Printf("结果已写入 %s\n", planOutput)
		return nil
	}

	fmt.Println(string(data))
	return nil
}

// decodeRequestFile 读取并解析请求文件，按扩展名识别 YAML/JSON
func decodeRequestFile(path string, doc *planDocument) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取请求文件失败: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		// YAML 先转成通用结构再走 JSON 标签解析
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("解析YAML失败: %w", err)
		}
		data, err = json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("转换YAML失败: %w", err)
		}
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("解析请求文件失败: %w", err)
	}
	return nil
}

// ========================================
// horizon 子命令
// ========================================

var (
	horizonStart  string
	horizonDays   int
	horizonEnd    string
	horizonRRule  string
	horizonLimit  int
	horizonSystem string
	horizonVessel string
	horizonNeeded int
)

var horizonCmd = &cobra.Command{
	Use:   "horizon",
	Short: "展开排班周期并预览值班班次模板",
	Long:  "按天数、结束日期或 RFC 5545 RRULE 展开排班日期；给出 --system 时同时生成该值班制的班次模板预览。",
	RunE:  runHorizon,
}

func init() {
	horizonCmd.Flags().StringVar(&horizonStart, "start", "", "起始日期 (YYYY-MM-DD)")
	horizonCmd.Flags().IntVar(&horizonDays, "days", 0, "展开天数")
	horizonCmd.Flags().StringVar(&horizonEnd, "end", "", "结束日期 (YYYY-MM-DD，含当天)")
	horizonCmd.Flags().StringVar(&horizonRRule, "rrule", "", "RFC 5545 RRULE 表达式")
	horizonCmd.Flags().IntVar(&horizonLimit, "limit", 31, "RRULE 展开上限")
	horizonCmd.Flags().StringVar(&horizonSystem, "system", "", "值班制 (two_watch/three_watch/day_worker)")
	horizonCmd.Flags().StringVar(&horizonVessel, "vessel", "", "船舶标识 (UUID)，缺省随机生成")
	horizonCmd.Flags().IntVar(&horizonNeeded, "needed", 1, "每段值班需求人数")
	horizonCmd.MarkFlagRequired("start")
	rootCmd.AddCommand(horizonCmd)
}

func runHorizon(cmd *cobra.Command, args []string) error {
	var days []string
	var err error

	switch {
	case horizonRRule != "":
		days, err = rotation.FromRRule(horizonRRule, horizonStart, horizonLimit)
	case horizonEnd != "":
		days, err = rotation.DateRangeDays(horizonStart, horizonEnd)
	case horizonDays > 0:
		days, err = rotation.Days(horizonStart, horizonDays)
	default:
		return fmt.Errorf("需给出 --rrule、--end 或 --days 之一")
	}
	if err != nil {
		return fmt.Errorf("展开排班周期失败: %w", err)
	}

	fmt.Printf("排班周期: %d 天\n", len(days))
	for _, day := range days {
		fmt.Println(day)
	}

	if horizonSystem == "" {
		return nil
	}

	vesselID := uuid.New()
	if horizonVessel != "" {
		vesselID, err = uuid.Parse(horizonVessel)
		if err != nil {
			return fmt.Errorf("船舶标识无效: %w", err)
		}
	}

	templates, err := rotation.NewCatalog().Templates(vesselID, rotation.WatchSystem(horizonSystem), horizonNeeded)
	if err != nil {
		return fmt.Errorf("生成班次模板失败: %w", err)
	}

	fmt.Printf("\n值班班次模板 (%s):\n", horizonSystem)
	for _, tpl := range templates {
		fmt.Printf("  %-4s %s-%s %-12s 需%d人\n", tpl.Code, tpl.StartTime, tpl.EndTime, tpl.Role, tpl.Needed)
	}
	return nil
}

// ========================================
// version 子命令
// ========================================

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "打印版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("CrewPlan planctl v%s\n", Version)
		fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
