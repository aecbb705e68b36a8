package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"PokeImageScraper/internal/adapter"
	"PokeImageScraper/internal/config"
	"PokeImageScraper/internal/logging"
	"PokeImageScraper/internal/network"
	"PokeImageScraper/internal/pokedex"

	"golang.org/x/sync/errgroup"
)

// ErrNoTasks は、実行対象のタスクが1つも無いことを示します。
var ErrNoTasks = errors.New("実行対象のタスクがありません")

// ExecuteTasks は、図鑑を1回だけ構築し、有効な全タスクを実行します。
// siteFilter が空でない場合は、その site_adapter のタスクだけを実行します。
// 図鑑の構築に失敗した場合は、どのタスクも実行せずにエラーを返します。
func ExecuteTasks(ctx context.Context, cfg *config.Config, siteFilter string) (RunStats, error) {
	logger := logging.NewLogger("core")

	tasks := SelectTasks(cfg.Tasks, siteFilter)
	if len(tasks) == 0 {
		return RunStats{}, fmt.Errorf("%w (site=%q)", ErrNoTasks, siteFilter)
	}

	client, err := network.NewClient(cfg.Network)
	if err != nil {
		return RunStats{}, fmt.Errorf("ネットワーククライアントの初期化に失敗しました: %w", err)
	}

	source, err := pokedex.NewSource(cfg.Pokedex, cfg.Network, client)
	if err != nil {
		return RunStats{}, err
	}
	index, err := source.Build(ctx)
	if err != nil {
		return RunStats{}, fmt.Errorf("図鑑の構築に失敗しました: %w", err)
	}

	var (
		mu    sync.Mutex
		total = RunStats{StartTime: time.Now()}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.GlobalMaxConcurrentTasks, 1))

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			siteAdapter, err := adapter.GetAdapter(task)
			if err != nil {
				logger.Error().Err(err).Str("task", task.TaskName).Msg("サイトアダプタの取得に失敗しました")
				return nil
			}
			stats, err := NewRunner(client, task).Run(gctx, index, siteAdapter)
			mu.Lock()
			total.Merge(stats)
			mu.Unlock()
			return err
		})
	}

	err = g.Wait()
	logger.Info().Int("tasks", len(tasks)).Msg(total.FormatSessionInfo())
	return total, err
}

// SelectTasks は、有効かつ siteFilter に一致するタスクを返します。
func SelectTasks(tasks []config.Task, siteFilter string) []config.Task {
	var selected []config.Task
	for _, task := range tasks {
		task := task
		if !task.IsEnabled() {
			continue
		}
		if siteFilter != "" && task.SiteAdapter != siteFilter {
			continue
		}
		selected = append(selected, task)
	}
	return selected
}
