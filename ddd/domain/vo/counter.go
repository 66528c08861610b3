package vo

// Counter 视频冗余计数字段
type Counter string

const (
	CounterViews    Counter = "views"
	CounterLikes    Counter = "likes"
	CounterComments Counter = "comments"
	CounterShares   Counter = "shares"
)

// Column 对应的数据库列
func (c Counter) Column() string {
	switch c {
	case CounterViews:
		return "views_count"
	case CounterLikes:
		return "likes_count"
	case CounterComments:
		return "comments_count"
	case CounterShares:
		return "shares_count"
	default:
		return ""
	}
}

func (c Counter) IsValid() bool { return c.Column() != "" }
