package aggregator

import "proxylist_generator/proxypool/model"

// Merge 按给定的代理源顺序合并所有已规范化的记录。
//
// 新的 (host, port) 按首次出现的顺序追加；重复的只把当前代理源加入 Sources，
// 其余元数据保持首次出现时的值。输入不会被修改，所以对同一组结果重复调用
// 得到的列表完全相同。
func Merge(results []model.SourceResult) []*model.ProxyRecord {
	index := make(map[string]*model.ProxyRecord)
	merged := make([]*model.ProxyRecord, 0)

	for _, res := range results {
		for _, rec := range res.Records {
			if existing, ok := index[rec.Key()]; ok {
				existing.AddSource(res.Source)
				continue
			}
			c := rec.Clone()
			c.Sources = []string{res.Source}
			index[c.Key()] = c
			merged = append(merged, c)
		}
	}
	return merged
}
