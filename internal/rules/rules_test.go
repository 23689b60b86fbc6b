package rules

import "testing"

func TestGetLibrary(t *testing.T) {
	library := GetLibrary()

	if len(library) == 0 {
		t.Fatal("Expected non-empty library")
	}

	seen := make(map[string]bool)
	for _, def := range library {
		t.Run(def.Name, func(t *testing.T) {
			if def.Name == "" || def.DisplayName == "" {
				t.Error("规则名称不能为空")
			}
			if seen[def.Name] {
				t.Errorf("规则名称重复: %s", def.Name)
			}
			seen[def.Name] = true

			if def.Type != "hard" && def.Type != "soft" {
				t.Errorf("Expected type hard/soft, got %s", def.Type)
			}
			if len(def.VesselTypes) == 0 {
				t.Error("规则应至少适用一种船型")
			}

			// 软规则必须可调权重
			if def.Type == "soft" {
				hasWeight := false
				for _, p := range def.Params {
					if p.Name == "weight" {
						hasWeight = true
					}
				}
				if !hasWeight {
					t.Error("软规则应有weight参数")
				}
			}
		})
	}
}

func TestGetTemplates(t *testing.T) {
	templates := GetTemplates()

	if len(templates) != 4 {
		t.Fatalf("Expected 4 templates, got %d", len(templates))
	}

	library := GetLibrary()
	known := make(map[string]bool, len(library))
	for _, def := range library {
		known[def.Name] = true
	}

	for _, tpl := range templates {
		t.Run(tpl.VesselType, func(t *testing.T) {
			if len(tpl.Rules) == 0 {
				t.Fatal("模板规则不能为空")
			}
			// 模板引用的规则必须存在于规则库中
			for _, rule := range tpl.Rules {
				if !known[rule.Name] {
					t.Errorf("模板引用了未定义的规则: %s", rule.Name)
				}
			}
		})
	}

	// 油轮模板要求船型证书
	for _, tpl := range templates {
		if tpl.VesselType != "tanker" {
			continue
		}
		found := false
		for _, rule := range tpl.Rules {
			if rule.Name == "vessel_type_cert" {
				found = true
			}
		}
		if !found {
			t.Error("油轮模板应包含vessel_type_cert规则")
		}
	}
}
