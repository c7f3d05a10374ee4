package entity

// Updater 时间驱动实体的统一更新协议
// t 为绝对仿真时间，dt 为距上一帧的秒数
type Updater interface {
	Update(t, dt float64)
}

// UpdaterFunc 函数适配器
type UpdaterFunc func(t, dt float64)

// Update 实现Updater接口
func (f UpdaterFunc) Update(t, dt float64) {
	f(t, dt)
}

// Coords 二维坐标
type Coords struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add 坐标平移
func (c Coords) Add(o Coords) Coords {
	return Coords{X: c.X + o.X, Y: c.Y + o.Y}
}

// Size 二维尺寸
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// BaseEntity 带位置和尺寸的基础实体，记录初始几何信息用于复位
type BaseEntity struct {
	pos         Coords
	size        Size
	initialPos  Coords
	initialSize Size
}

// NewBaseEntity 创建基础实体
func NewBaseEntity(pos Coords, size Size) BaseEntity {
	return BaseEntity{
		pos:         pos,
		size:        size,
		initialPos:  pos,
		initialSize: size,
	}
}

// Position 当前位置
func (e *BaseEntity) Position() Coords { return e.pos }

// SetPosition 设置位置
func (e *BaseEntity) SetPosition(pos Coords) { e.pos = pos }

// Size 当前尺寸
func (e *BaseEntity) Size() Size { return e.size }

// SetSize 设置尺寸
func (e *BaseEntity) SetSize(size Size) { e.size = size }

// InitialPosition 初始位置
func (e *BaseEntity) InitialPosition() Coords { return e.initialPos }

// InitialSize 初始尺寸
func (e *BaseEntity) InitialSize() Size { return e.initialSize }

// ResetGeometry 恢复初始位置和尺寸
func (e *BaseEntity) ResetGeometry() {
	e.pos = e.initialPos
	e.size = e.initialSize
}
