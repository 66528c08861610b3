package assert

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// NotCircular 检测单例构造过程中的循环依赖。
// 在 sync.Once 之前调用，同一调用点在同一 goroutine 中重入时 panic。
func NotCircular() {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return
	}
	name := fn.Name()
	buf := make([]byte, 64<<10)
	stack := string(buf[:runtime.Stack(buf, false)])
	// 跳过当前帧后，调用方函数再次出现说明处于自身初始化过程中
	if strings.Count(stack, name+"(") > 1 {
		panic(fmt.Sprintf("circular singleton initialization detected in %s", name))
	}
}

// NotNil 值为空时 panic
func NotNil(v interface{}) {
	if v == nil {
		panic("unexpected nil value")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			panic(fmt.Sprintf("unexpected nil %T", v))
		}
	}
}
