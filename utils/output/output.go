// episode汇总数据的MongoDB输出
package output

import (
	"context"
	"time"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/google/uuid"
	"github.com/tsinghua-fib-lab/trafficrl-oss/utils/config"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/yaml.v2"
)

// RunRecord 单次运行的登记记录
type RunRecord struct {
	RunID     string    `bson:"run_id"`    // 本次运行的唯一标识
	Job       string    `bson:"job"`       // 任务名
	Policy    string    `bson:"policy"`    // 策略名
	Config    string    `bson:"config"`    // 生效配置的YAML回显
	CreatedAt time.Time `bson:"created_at"`
}

// EpisodeRecord 单个episode的汇总记录
type EpisodeRecord struct {
	RunID           string    `bson:"run_id"`           // 本次运行的唯一标识
	Job             string    `bson:"job"`              // 任务名
	Mode            string    `bson:"mode"`             // train或eval
	Episode         int       `bson:"episode"`          // episode序号
	Steps           int32     `bson:"steps"`            // 实际执行的tick数
	Status          string    `bson:"status"`           // episode结束状态
	Reward          float64   `bson:"reward"`           // 全路口奖励总和
	Loss            float64   `bson:"loss"`             // 策略更新loss（无更新时为0）
	TotalWaiting    float64   `bson:"total_waiting"`    // 等待时间逐tick累积
	Throughput      int       `bson:"throughput"`       // 累计到达车辆数
	CongestionLevel float64   `bson:"congestion_level"` // 结束时的拥堵车道比例
	EmergencySeen   int       `bson:"emergency_seen"`   // 登记过的应急车辆数
	CreatedAt       time.Time `bson:"created_at"`       // 写入时间
}

// Recorder episode记录输出器
// 功能：将每个episode的汇总指标写入MongoDB
// 说明：URI为空时禁用，所有写入退化为no-op；单次写入失败只记录日志，
// 不影响训练推进
type Recorder struct {
	client *mongo.Client
	coll   *mongo.Collection
	runID  string
}

// NewRecorder 创建episode记录输出器
// 参数：c-输出配置
func NewRecorder(c config.Output) *Recorder {
	r := &Recorder{runID: uuid.NewString()}
	if c.URI == "" {
		log.Infof("episode output disabled (no uri)")
		return r
	}
	r.client = mongoutil.NewClient(c.URI)
	r.coll = r.client.Database(c.DB).Collection(c.Col)
	log.Infof("episode output to %s.%s, run id %s", c.DB, c.Col, r.runID)
	return r
}

// RunID 本次运行的唯一标识
func (r *Recorder) RunID() string {
	return r.runID
}

// WriteRun 登记一次运行（任务名、策略与生效配置回显）
// 说明：写入失败只记录日志
func (r *Recorder) WriteRun(job, policy string, c config.Config) {
	if r.coll == nil {
		return
	}
	echo, err := yaml.Marshal(c)
	if err != nil {
		log.Errorf("marshal config echo: %v", err)
	}
	record := RunRecord{
		RunID:     r.runID,
		Job:       job,
		Policy:    policy,
		Config:    string(echo),
		CreatedAt: time.Now(),
	}
	if _, err := r.coll.InsertOne(context.Background(), record); err != nil {
		log.Errorf("write run record: %v", err)
	}
}

// WriteEpisode 写入一条episode汇总记录
// 说明：写入失败只记录日志（输出不阻断训练）
func (r *Recorder) WriteEpisode(record EpisodeRecord) {
	if r.coll == nil {
		return
	}
	record.RunID = r.runID
	record.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(context.Background(), record); err != nil {
		log.Errorf("write episode record: %v", err)
	}
}

// Close 断开数据库连接
func (r *Recorder) Close() {
	if r.client == nil {
		return
	}
	if err := r.client.Disconnect(context.Background()); err != nil {
		log.Errorf("disconnect output client: %v", err)
	}
}
