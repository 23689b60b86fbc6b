// Package e2e 提供端到端测试
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/crewplan/crewplan/internal/handler"
	"github.com/crewplan/crewplan/internal/metrics"
	"github.com/crewplan/crewplan/pkg/model"
	"github.com/crewplan/crewplan/pkg/validator"
)

// callJSON 序列化请求体并调用处理器
func callJSON(t *testing.T, h http.HandlerFunc, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("序列化请求失败: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// mustDecode 解析响应体
func mustDecode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("解析响应失败: %v, body = %s", err, rec.Body.String())
	}
}

// createTestCrew 生成在册水手
func createTestCrew(count int) []*model.CrewMember {
	crew := make([]*model.CrewMember, count)
	for i := 0; i < count; i++ {
		crew[i] = &model.CrewMember{
			BaseModel: model.BaseModel{ID: uuid.New()},
			Name:      fmt.Sprintf("船员%02d", i+1),
			Rank:      model.RankAbleSeaman,
			Status:    "active",
		}
	}
	return crew
}

// reconstructAssignments 将排班输出DTO还原为排班记录
func reconstructAssignments(t *testing.T, outputs []handler.AssignmentOutput, shiftByID map[uuid.UUID]*model.ShiftTemplate) []*model.Assignment {
	t.Helper()

	assignments := make([]*model.Assignment, len(outputs))
	for i, out := range outputs {
		shiftID := uuid.MustParse(out.ShiftID)
		shift, ok := shiftByID[shiftID]
		if !ok {
			t.Fatalf("未知班次: %s", out.ShiftID)
		}
		window, err := shift.WindowOn(out.Date)
		if err != nil {
			t.Fatalf("计算班次窗口失败: %v", err)
		}
		assignments[i] = &model.Assignment{
			Date:      out.Date,
			ShiftID:   shiftID,
			CrewID:    uuid.MustParse(out.CrewID),
			VesselID:  shift.VesselID,
			Role:      out.Role,
			StartTime: window.Start,
			EndTime:   window.End,
		}
	}
	return assignments
}

// TestFullPlanningWorkflow 完整排班工作流：展开值班制 → 生成 → 验证 → 统计 → 换班推荐
func TestFullPlanningWorkflow(t *testing.T) {
	planHandler := handler.NewPlanHandler()
	vesselID := uuid.New()
	fleetID := uuid.New()
	crew := createTestCrew(12)

	// 1. 展开三班制一周的排班周期与班次模板
	rec := callJSON(t, handler.ExpandRotationHandler, http.MethodPost, "/api/v1/rotation/expand", handler.ExpandRotationRequest{
		VesselID: vesselID.String(),
		System:   "three_watch",
		Needed:   1,
		Start:    "2026-08-10",
		Days:     7,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("展开值班制失败: %d %s", rec.Code, rec.Body.String())
	}

	var expand handler.ExpandRotationResponse
	mustDecode(t, rec, &expand)
	if len(expand.Days) != 7 || len(expand.Shifts) != 6 {
		t.Fatalf("展开结果 days=%d shifts=%d", len(expand.Days), len(expand.Shifts))
	}

	shiftByID := make(map[uuid.UUID]*model.ShiftTemplate, len(expand.Shifts))
	for _, s := range expand.Shifts {
		shiftByID[s.ID] = s
	}
	t.Logf("三班制展开: %d 天 x %d 班次", len(expand.Days), len(expand.Shifts))

	// 2. 约束引擎生成排班
	rec = callJSON(t, planHandler.Generate, http.MethodPost, "/api/v1/plan/generate", handler.GenerateRequest{
		FleetID: fleetID.String(),
		Engine:  "constraint",
		Days:    expand.Days,
		Shifts:  expand.Shifts,
		Crew:    crew,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("排班生成失败: %d %s", rec.Code, rec.Body.String())
	}

	var plan handler.GenerateResponse
	mustDecode(t, rec, &plan)

	wantAssignments := len(expand.Days) * len(expand.Shifts)
	if len(plan.Scheduled) != wantAssignments {
		t.Errorf("scheduled = %d, 期望 %d", len(plan.Scheduled), wantAssignments)
	}
	if len(plan.Unfilled) != 0 {
		t.Errorf("unfilled = %d: %+v", len(plan.Unfilled), plan.Unfilled)
	}
	if plan.Statistics == nil || plan.Statistics.CoverageRate != 1 {
		t.Errorf("statistics = %+v", plan.Statistics)
	}
	t.Logf("排班完成: 引擎=%s, 分配=%d, 夜班占比=%.2f, 耗时=%s",
		plan.Engine, len(plan.Scheduled), plan.Statistics.NightShare, plan.Duration)

	// 3. 还原排班记录并验证方案
	scheduled := reconstructAssignments(t, plan.Scheduled, shiftByID)

	rec = callJSON(t, planHandler.Validate, http.MethodPost, "/api/v1/plan/validate", handler.ValidateRequest{
		FleetID: fleetID.String(),
		Input: validator.Input{
			Days:      expand.Days,
			Shifts:    expand.Shifts,
			Crew:      crew,
			Scheduled: scheduled,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("方案验证失败: %d", rec.Code)
	}

	var verdict handler.ValidateResponse
	mustDecode(t, rec, &verdict)
	if verdict.Errors != 0 {
		t.Errorf("error级冲突 = %d: %+v", verdict.Errors, verdict.Conflicts)
	}
	for _, c := range verdict.Conflicts {
		t.Logf("验证提示[%s]: %s", c.Severity, c.Message)
	}

	// 4. 覆盖率与公平性统计
	rec = callJSON(t, handler.GetCoverageHandler, http.MethodPost, "/api/v1/stats/coverage", handler.StatsRequest{
		FleetID:   fleetID.String(),
		Days:      expand.Days,
		Shifts:    expand.Shifts,
		Crew:      crew,
		Scheduled: scheduled,
	})
	var coverage handler.CoverageResponse
	mustDecode(t, rec, &coverage)
	if coverage.Data == nil || coverage.Data.OverallCoverage != 100 {
		t.Errorf("覆盖率 = %+v", coverage.Data)
	}
	if coverage.Data.TotalSlots != wantAssignments {
		t.Errorf("total_slots = %d, 期望 %d", coverage.Data.TotalSlots, wantAssignments)
	}

	rec = callJSON(t, handler.GetFairnessHandler, http.MethodPost, "/api/v1/stats/fairness", handler.StatsRequest{
		FleetID:   fleetID.String(),
		Crew:      crew,
		Scheduled: scheduled,
	})
	var fairness handler.FairnessResponse
	mustDecode(t, rec, &fairness)
	if fairness.Data == nil {
		t.Fatal("公平性数据为空")
	}
	if fairness.Data.WorkloadGini < 0 || fairness.Data.WorkloadGini > 0.3 {
		t.Errorf("工时基尼系数 = %.4f, 期望均衡分布", fairness.Data.WorkloadGini)
	}
	t.Logf("公平性: gini=%.4f, 人均=%.1fh", fairness.Data.WorkloadGini, fairness.Data.AvgHoursPerCrew)

	// 5. 对首个班次给出换班推荐
	rec = callJSON(t, handler.RecommendSwapHandler, http.MethodPost, "/api/v1/swap/recommend", handler.RecommendSwapRequest{
		Context: handler.SwapContextInput{
			FleetID:   fleetID.String(),
			Days:      expand.Days,
			Shifts:    expand.Shifts,
			Crew:      crew,
			Scheduled: scheduled,
		},
		Source: scheduled[0],
	})
	var recommend handler.RecommendSwapResponse
	mustDecode(t, rec, &recommend)
	if !recommend.Success || len(recommend.Recommendations) == 0 {
		t.Fatalf("换班推荐 = %+v", recommend)
	}
	for _, r := range recommend.Recommendations {
		if r.TargetCrew.ID == scheduled[0].CrewID {
			t.Error("不应推荐让班船员自己接班")
		}
	}
	t.Logf("换班推荐: %d 个人选, 首选=%s 得分=%.1f",
		len(recommend.Recommendations), recommend.Recommendations[0].TargetCrew.Name, recommend.Recommendations[0].Score)
}

// TestFullReliefWorkflow 完整换班调派工作流：批量调派 → 巡回路线
func TestFullReliefWorkflow(t *testing.T) {
	vesselA := uuid.New()
	vesselB := uuid.New()

	crewA := &model.CrewMember{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Name:      "张海", Rank: model.RankAbleSeaman, Status: "active",
	}
	crewB := &model.CrewMember{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Name:      "李航", Rank: model.RankAbleSeaman, Status: "active",
	}

	// 相邻两天的调派单，任务间隔约束使同一人不能连续接两单
	urgent := &model.ReliefOrder{
		BaseModel: model.BaseModel{ID: uuid.New()},
		VesselID:  vesselA, OrderNo: "RLF-NB-0810",
		Port: "CNNGB", ReliefDate: "2026-08-10",
		Position: &model.Location{Latitude: 29.87, Longitude: 121.54, Port: "CNNGB"},
		Status:   "pending", Priority: 9,
	}
	followup := &model.ReliefOrder{
		BaseModel: model.BaseModel{ID: uuid.New()},
		VesselID:  vesselB, OrderNo: "RLF-QD-0811",
		Port: "CNTAO", ReliefDate: "2026-08-11",
		Position: &model.Location{Latitude: 36.07, Longitude: 120.38, Port: "CNTAO"},
		Status:   "pending", Priority: 5,
	}

	// 1. 批量调派
	rec := callJSON(t, handler.BatchReliefHandler, http.MethodPost, "/api/v1/relief/batch", handler.BatchReliefRequest{
		Orders:     []*model.ReliefOrder{followup, urgent}, // 乱序提交，引擎按优先级处理
		Candidates: []*model.CrewMember{crewA, crewB},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("批量调派失败: %d %s", rec.Code, rec.Body.String())
	}

	var batch handler.BatchReliefAPIResponse
	mustDecode(t, rec, &batch)

	if !batch.Success || batch.Summary == nil {
		t.Fatalf("响应 = %+v", batch)
	}
	if batch.Summary.SuccessCount != 2 || batch.Summary.FailCount != 0 {
		t.Fatalf("调派汇总 = %+v", batch.Summary)
	}
	if batch.Summary.AssignedCrew != 2 {
		t.Errorf("assigned_crew = %d, 期望任务间隔约束把两单分给两人", batch.Summary.AssignedCrew)
	}

	// 高优先级单先处理
	if batch.Data[0].OrderNo != urgent.OrderNo {
		t.Errorf("首个处理的单 = %s, 期望 %s", batch.Data[0].OrderNo, urgent.OrderNo)
	}
	if batch.Data[0].BestMatch == nil || batch.Data[1].BestMatch == nil {
		t.Fatal("两单都应给出人选")
	}
	if batch.Data[0].BestMatch.Crew.ID == batch.Data[1].BestMatch.Crew.ID {
		t.Error("相邻两天的调派单不应派给同一人")
	}
	for _, resp := range batch.Data {
		t.Logf("调派 %s → %s (得分=%.2f)", resp.OrderNo, resp.BestMatch.Crew.Name, resp.BestMatch.Score)
	}

	// 2. 从上海出发规划巡回路线
	rec = callJSON(t, handler.OptimalRouteHandler, http.MethodPost, "/api/v1/relief/route", handler.OptimalRouteRequest{
		Orders:        []*model.ReliefOrder{followup, urgent},
		StartLocation: &model.Location{Latitude: 31.23, Longitude: 121.47, Port: "CNSHA"},
	})

	var route handler.OptimalRouteResponse
	mustDecode(t, rec, &route)
	if !route.Success || len(route.Orders) != 2 {
		t.Fatalf("路线响应 = %+v", route)
	}
	if route.Orders[0].OrderNo != urgent.OrderNo {
		t.Errorf("首站 = %s, 期望距上海更近的宁波单", route.Orders[0].OrderNo)
	}
	t.Logf("巡回路线: %s → %s", route.Orders[0].Port, route.Orders[1].Port)
}

// TestAPIEndpointStatuses 按真实路由表检查各端点的方法与空请求处理
func TestAPIEndpointStatuses(t *testing.T) {
	planHandler := handler.NewPlanHandler()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/plan/generate", planHandler.Generate)
	mux.HandleFunc("/api/v1/plan/validate", planHandler.Validate)
	mux.HandleFunc("/api/v1/stats/fairness", handler.GetFairnessHandler)
	mux.HandleFunc("/api/v1/stats/coverage", handler.GetCoverageHandler)
	mux.HandleFunc("/api/v1/stats/workload", handler.GetWorkloadHandler)
	mux.HandleFunc("/api/v1/relief/single", handler.ReliefDispatchHandler)
	mux.HandleFunc("/api/v1/relief/batch", handler.BatchReliefHandler)
	mux.HandleFunc("/api/v1/relief/route", handler.OptimalRouteHandler)
	mux.HandleFunc("/api/v1/rotation/expand", handler.ExpandRotationHandler)
	mux.HandleFunc("/api/v1/swap/evaluate", handler.EvaluateSwapHandler)
	mux.HandleFunc("/api/v1/swap/recommend", handler.RecommendSwapHandler)
	mux.Handle("/metrics", metrics.Handler())

	endpoints := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/api/v1/plan/generate", http.StatusBadRequest}, // 空请求体
		{http.MethodGet, "/api/v1/plan/generate", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/plan/validate", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/stats/fairness", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/v1/stats/fairness", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/stats/coverage", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/stats/workload", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/relief/single", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/v1/relief/single", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/relief/batch", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/rotation/expand", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/rotation/expand", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/swap/evaluate", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/swap/recommend", http.StatusBadRequest},
	}

	for _, ep := range endpoints {
		t.Run(fmt.Sprintf("%s_%s", ep.method, ep.path), func(t *testing.T) {
			req := httptest.NewRequest(ep.method, ep.path, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != ep.status {
				t.Errorf("状态码 = %d, 期望 %d", rec.Code, ep.status)
			}
		})
	}
}

// TestConcurrentPlanGeneration 并发生成请求，约束引擎输出应逐字节一致
func TestConcurrentPlanGeneration(t *testing.T) {
	planHandler := handler.NewPlanHandler()
	vesselID := uuid.New()

	shift := &model.ShiftTemplate{
		BaseModel: model.BaseModel{ID: uuid.New()},
		VesselID:  vesselID,
		Name:      "航行值班",
		StartTime: "08:00",
		EndTime:   "16:00",
		Needed:    2,
		IsActive:  true,
	}
	crew := createTestCrew(4)

	request := handler.GenerateRequest{
		FleetID: uuid.New().String(),
		Engine:  "constraint",
		Days:    []string{"2026-08-10", "2026-08-11", "2026-08-12"},
		Shifts:  []*model.ShiftTemplate{shift},
		Crew:    crew,
	}

	const concurrency = 8
	results := make([][]byte, concurrency)
	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body, err := json.Marshal(request)
			if err != nil {
				t.Errorf("序列化请求失败: %v", err)
				return
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/plan/generate", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			planHandler.Generate(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("请求#%d 状态码 = %d", idx, rec.Code)
				return
			}

			var resp handler.GenerateResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Errorf("请求#%d 解析失败: %v", idx, err)
				return
			}

			scheduled, err := json.Marshal(resp.Scheduled)
			if err != nil {
				t.Errorf("请求#%d 序列化结果失败: %v", idx, err)
				return
			}
			results[idx] = scheduled
		}(i)
	}

	wg.Wait()

	for i := 1; i < concurrency; i++ {
		if results[i] == nil || results[0] == nil {
			t.Fatal("存在失败的并发请求")
		}
		if !bytes.Equal(results[0], results[i]) {
			t.Errorf("请求#%d 的排班结果与首个不一致", i)
		}
	}
	t.Logf("%d 个并发请求输出一致", concurrency)
}
