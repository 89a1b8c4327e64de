package ability

import "go.uber.org/zap"

func zapID(id string) zap.Field { return zap.String("ability", id) }

func zapCount(n int) zap.Field { return zap.Int("count", n) }
