package config

// Item groups of the writing-feedback questionnaire, in questionnaire order.
var (
	defaultTeacherFeedback = []string{
		"在我完成写作作业后，老师会提供反馈意见。",
		"老师会及时提供写作反馈。",
		"老师会根据不同的写作任务调整反馈的重点。",
		"老师把反馈作为我们完成写作任务过程中的必备环节。",
		"老师将有限的写作反馈机会聚焦于我最需要指导/改进的方面。",
		"老师在提供写作反馈的时候不会注意我的感受。",
		"老师鼓励我们向她/他或同学寻求写作反馈意见。",
		"老师在给我们写作反馈的时候，会通过理解和信任来帮助我们。",
		"老师会借助网络与我交流写作的反馈意见。",
		"老师帮助我认识写作反馈是双向互动过程。",
		"老师会强调学生不仅是反馈的接收者，也是反馈的提供者。",
		"老师在教学活动中会指导我积极参与写作反馈（包括:如何寻求反馈、理解反馈或者根据反馈修改作文等）。",
	}

	defaultStudentPerception = []string{
		"我会根据收到的反馈改进我的写作。",
		"我会通过自我反思来加强和规范我的写作。",
		"如果有评分标准，我在写作前会通读评分标准。",
		"在做写作作业之前，我会先学习范例或老师推荐的文章。",
		"我会根据老师的指导来计划和管理我的写作。",
		"我会通过使用网上参考资料来解决写作中遇到的一些问题。",
		"我会观察其他学生是如何完成写作任务的，这样我就可以改进我的写作策略。",
		"如果我一开始不能理解收到的写作反馈，我会不断思索，直到我理解为止。",
		"我会判断自己的写作质量是否符合要求，是否需要进一步修改。",
		"我会把老师在课堂上的指导和我的写作作业联系起来，思考我哪里写的不好。",
		"当我阅读写作反馈时，我可以分清哪些是重要信息，哪些是次重要信息。",
		"根据收到的写作反馈，我会发现自己在写作方面存在哪些不足之处，并思考下一步该怎么做。",
		"我会分析来自不同来源的写作反馈，并认识到它们对我提高写作水平的价值。",
		"我会积极寻求同伴的写作反馈。",
		"我会积极寻求老师的写作反馈。",
		"我会和同学讨论并给出写作反馈。",
		"我愿意和别人分享我关于写作作业的想法。",
		"我重视别人的写作反馈。",
		"我期待收到对我的写作作业的反馈。",
		"我喜欢收到关于我的写作作业的有挑战性和建设性的反馈。",
		"当我收到关于我的写作作业的负面反馈时，我会感到沮丧。",
		"当收到老师的写作反馈时，我感觉很好。",
	}

	defaultFeedbackType = []string{
		"老师会及时提供写作反馈。",
		"老师鼓励我们向她/他或同学寻求写作反馈意见。",
		"我会积极寻求同伴的写作反馈。",
		"我会积极寻求老师的写作反馈。",
		"我会和同学讨论并给出写作反馈。",
	}

	defaultWritingAbility = []string{
		"我会根据收到的反馈改进我的写作。",
		"我会通过自我反思来加强和规范我的写作。",
		"我会判断自己的写作质量是否符合要求，是否需要进一步修改。",
		"根据收到的写作反馈，我会发现自己在写作方面存在哪些不足之处，并思考下一步该怎么做。",
		"我会分析来自不同来源的写作反馈，并认识到它们对我提高写作水平的价值。",
	}

	defaultExpectation = []string{
		"我期待收到对我的写作作业的反馈。",
		"我喜欢收到关于我的写作作业的有挑战性和建设性的反馈。",
		"我会积极寻求老师的写作反馈。",
		"我会积极寻求同伴的写作反馈。",
	}
)

const (
	defaultReverseItem = "老师在提供写作反馈的时候不会注意我的感受。"
	defaultModelTarget = "我重视别人的写作反馈。"
)
